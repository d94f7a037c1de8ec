package streak

import (
	"errors"
	"fmt"
	"time"

	"github.com/phototheology/palace-backend/internal/platform/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplyInTx 在调用方事务中推进用户的连击状态。
// 行锁保证同一用户的并发活动串行化，同一UTC日内的重复活动是幂等的。
func ApplyInTx(tx *gorm.DB, userUUID string, activityAt time.Time) (*Result, error) {
	var record StreakRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_uuid = ?", userUUID).
		First(&record).Error

	var current *StreakRecord
	if errors.Is(err, gorm.ErrRecordNotFound) {
		current = nil
	} else if err != nil {
		return nil, fmt.Errorf("无法读取连击记录: %w", err)
	} else {
		current = &record
	}

	result := Advance(current, activityAt)

	switch result.Transition {
	case TransitionSameDay, TransitionRejected:
		// 状态不变，无需写库
		return &result, nil
	}

	if current == nil {
		record = StreakRecord{UserUUID: userUUID}
	}
	record.CurrentStreak = result.CurrentStreak
	record.LongestStreak = result.LongestStreak
	record.TotalActiveDays = result.TotalActiveDays
	record.LastActivityDate = result.ActivityDate

	if err := tx.Save(&record).Error; err != nil {
		return nil, fmt.Errorf("无法保存连击记录: %w", err)
	}
	return &result, nil
}

// GetStreak 返回用户当前的连击状态。用户从未活动时返回零值记录。
// 查询时不推进状态：连击是否已断由读取方按当前日期自行判断展示。
func GetStreak(userUUID string) (*StreakRecord, error) {
	var record StreakRecord
	err := database.DB.Where("user_uuid = ?", userUUID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &StreakRecord{UserUUID: userUUID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取连击记录: %w", err)
	}
	return &record, nil
}

// IsStreakAlive 判断记录在给定时刻是否仍然存续：
// 最后活动日是今天或昨天(UTC)时连击未断。
func IsStreakAlive(record *StreakRecord, now time.Time) bool {
	if record == nil || record.TotalActiveDays == 0 {
		return false
	}
	lastDay := utcDay(record.LastActivityDate)
	today := utcDay(now)
	return lastDay.Equal(today) || lastDay.Equal(today.AddDate(0, 0, -1))
}
