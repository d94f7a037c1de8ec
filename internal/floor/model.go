package floor

import (
	"time"

	"gorm.io/gorm"
)

// FloorCount 是宫殿的层数，层号取 [1, FloorCount]。
const FloorCount = 8

// FloorMasteryState 持有用户在单个楼层的精通进度，每(用户,楼层)一行。
// MasteryAwardedAt 为非空即代表该层已精通，只设置一次。
type FloorMasteryState struct {
	gorm.Model
	UserUUID           string     `gorm:"type:varchar(36);uniqueIndex:idx_user_floor;not null"`
	FloorNumber        int        `gorm:"uniqueIndex:idx_user_floor;not null"`
	CurriculumPercent  float64    `gorm:"not null;default:0"`
	AssessmentPassed   bool       `gorm:"not null;default:false"`
	TeachingDemoPassed bool       `gorm:"not null;default:false"`
	MasteryAwardedAt   *time.Time `gorm:"default:null"`
}
