package streak

import (
	"fmt"

	"github.com/phototheology/palace-backend/internal/platform/database"
)

// PrimeDB 准备 streak 模块的数据库表。
// 连击状态全部走数据库行锁，没有Redis侧视图需要预热。
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&StreakRecord{}); err != nil {
		return fmt.Errorf("无法迁移连击表: %w", err)
	}
	return nil
}
