package retention

import (
	"time"

	"gorm.io/gorm"
)

// RetentionTestRecord 是保持测验的尝试日志，只追加，从不更新或删除。
// 同一(用户,房间,间隔)可以有多次尝试，任意一次通过即满足该档。
type RetentionTestRecord struct {
	gorm.Model
	UserUUID     string    `gorm:"type:varchar(36);index:idx_retention_user_room;not null"`
	RoomID       string    `gorm:"type:varchar(32);index:idx_retention_user_room;not null"`
	IntervalDays int       `gorm:"not null"`
	Score        int       `gorm:"not null"`
	Passed       bool      `gorm:"not null"`
	TakenAt      time.Time `gorm:"not null"`
}
