package streak

import (
	"time"

	"gorm.io/gorm"
)

// StreakRecord 持有单个用户的连续学习状态，每用户一行。
// LastActivityDate 存储UTC日历日零点，日界判定全部以UTC为准。
type StreakRecord struct {
	gorm.Model
	UserUUID         string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	CurrentStreak    int       `gorm:"not null;default:0"`
	LongestStreak    int       `gorm:"not null;default:0"`
	TotalActiveDays  int       `gorm:"not null;default:0"`
	LastActivityDate time.Time `gorm:"not null"`
}
