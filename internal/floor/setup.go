package floor

import (
	"fmt"

	"github.com/phototheology/palace-backend/internal/platform/database"
)

// PrimeDB 准备 floor 模块的数据库表。
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&FloorMasteryState{}); err != nil {
		return fmt.Errorf("无法迁移楼层状态表: %w", err)
	}
	return nil
}
