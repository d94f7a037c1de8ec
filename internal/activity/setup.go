package activity

import (
	"fmt"

	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/phototheology/palace-backend/internal/platform/metadata"
	"github.com/phototheology/palace-backend/internal/user"
	"github.com/phototheology/palace-backend/pkg/lifecycle"
)

// PrimeDB 负责初始化activity模块的数据库部分，并回填user模块。
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&Activity{}); err != nil {
		return fmt.Errorf("无法迁移activity表: %w", err)
	}
	fmt.Println("Activity数据库表迁移成功。")

	var userIDs []string
	err := database.DB.Model(&Activity{}).Where("user_uuid != ?", "").Distinct("user_uuid").Pluck("user_uuid", &userIDs).Error
	if err != nil {
		return fmt.Errorf("无法从activity表提取用户ID: %w", err)
	}

	if err := user.BatchCreateUsers(userIDs); err != nil {
		return fmt.Errorf("将用户同步到user模块失败: %w", err)
	}

	return nil
}

// StartActivityProcessor 初始化并启动全局的Activity Processor
// 它接收两个handle来管理其两阶段的关闭逻辑
func StartActivityProcessor(gracefulHandle, forcefulHandle *lifecycle.Handle) error {
	startID, err := metadata.GetLastSnapshotID()
	if err != nil {
		return fmt.Errorf("无法获取启动Activity Processor所需的快照ID: %w", err)
	}

	initializeProcessor(startID)
	go startProcessor(gracefulHandle, forcefulHandle) // 在一个新的Goroutine中启动它

	return nil
}
