package activity

import (
	"gorm.io/gorm"
)

// Activity 是学习活动的事件日志，每次提交追加一行。
// 自增ID决定了处理器更新Redis视图的顺序。
type Activity struct {
	gorm.Model

	// UserUUID 是提交活动的用户
	UserUUID string `json:"user_uuid" gorm:"type:varchar(36);index"`

	// RoomID 是活动发生的房间
	RoomID string `json:"room_id" gorm:"type:varchar(32);index"`

	// SessionID 是签发本次学习会话的一次性ID
	SessionID string `json:"session_id" gorm:"type:varchar(36)"`

	// 活动内容的各个加分维度
	DrillCompleted    bool `json:"drill_completed"`
	ExerciseCompleted bool `json:"exercise_completed"`
	PerfectScore      bool `json:"perfect_score"`
	TimeBonus         bool `json:"time_bonus"`

	// DrillScore 是0-100的操练得分，没有计分时为空
	DrillScore *int `json:"drill_score"`

	// XPAwarded 是本次活动入账的XP，入库时已经算好
	XPAwarded int `json:"xp_awarded"`

	// RoomMastered 标记本次活动是否让房间跨过精通门槛
	RoomMastered bool `json:"room_mastered"`
}
