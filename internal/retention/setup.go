package retention

import (
	"fmt"

	"github.com/phototheology/palace-backend/internal/platform/database"
)

// PrimeDB 准备 retention 模块的数据库表。
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&RetentionTestRecord{}); err != nil {
		return fmt.Errorf("无法迁移测验记录表: %w", err)
	}
	return nil
}
