package profile

import (
	"time"

	"gorm.io/gorm"
)

// MasteryProfile 定义了用户在单个房间内的进度持久化模型。
// 每个(用户, 房间)组合一行；首次在房间内产生活动时懒创建。
type MasteryProfile struct {
	gorm.Model

	// UserUUID 是用户的身份标识，来自user模块
	UserUUID string `gorm:"index:idx_user_room,unique;not null;type:varchar(36)"`

	// RoomID 是房间的业务ID，来自room模块
	RoomID string `gorm:"index:idx_user_room,unique;not null"`

	// XP 是该房间内累计的经验值。除账号删除外单调不减。
	XP int `gorm:"not null;default:0"`

	// MasteredAt 在房间XP首次达到满级门槛时被设置，此后不再改变。
	// 它是保持测验阶梯(retention模块)的计时起点。
	MasteredAt *time.Time
}
