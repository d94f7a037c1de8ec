package user

import (
	"time"

	"gorm.io/gorm"
)

// User 定义了用户在关系型数据库中的持久化模型。
// 身份来自客户端Cookie中的UUID；进度数据由profile/streak等模块各自持有。
type User struct {
	// UUID 是用户的主键，来自客户端Cookie。
	UUID string `gorm:"primarykey;type:varchar(36)"`

	// 以下是由快照回写的汇总列，实时值在Redis的profile:stats中
	TotalXP         int `gorm:"default:0"`
	RoomsMastered   int `gorm:"default:0"`
	ActivitiesCount int `gorm:"default:0"`

	// 部分gorm.Model，由GORM自动管理
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
