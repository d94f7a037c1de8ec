package retention

import (
	"errors"
	"fmt"
	"time"

	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/phototheology/palace-backend/internal/profile"
	"gorm.io/gorm"
)

var (
	// ErrRoomNotMastered 表示房间尚未精通，阶梯还没有起点
	ErrRoomNotMastered = errors.New("房间尚未精通")
	// ErrIntervalLocked 表示档位还未到解锁时刻
	ErrIntervalLocked = errors.New("该档位尚未解锁")
	// ErrIntervalAlreadyPassed 表示该档位已有通过记录
	ErrIntervalAlreadyPassed = errors.New("该档位已通过")
	// ErrInvalidInterval 表示间隔不在阶梯档位中
	ErrInvalidInterval = errors.New("间隔天数无效")
)

// SubmitResultDTO 是一次测验提交的结果
type SubmitResultDTO struct {
	Passed     bool
	Score      int
	TrueMaster bool
}

// GetLadderStatus 返回用户在某房间的阶梯状态。
// 房间未精通时返回 ErrRoomNotMastered。
func GetLadderStatus(userUUID, roomID string, now time.Time) (*LadderStatus, error) {
	masteredAt, err := profile.GetMasteredAt(userUUID, roomID)
	if err != nil {
		return nil, err
	}
	if masteredAt == nil {
		return nil, ErrRoomNotMastered
	}

	var attempts []RetentionTestRecord
	err = database.DB.Where("user_uuid = ? AND room_id = ?", userUUID, roomID).
		Order("taken_at asc").Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("无法读取测验历史: %w", err)
	}

	status := BuildLadder(*masteredAt, attempts, now)
	return &status, nil
}

// SubmitTest 提交一次保持测验。
// 档位必须已解锁且未通过；不合格的提交同样追加日志，只是不通过。
func SubmitTest(userUUID, roomID string, intervalDays, score int, now time.Time) (*SubmitResultDTO, error) {
	if !ValidInterval(intervalDays) {
		return nil, ErrInvalidInterval
	}

	masteredAt, err := profile.GetMasteredAt(userUUID, roomID)
	if err != nil {
		return nil, err
	}
	if masteredAt == nil {
		return nil, ErrRoomNotMastered
	}

	var result SubmitResultDTO
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var passedCount int64
		err := tx.Model(&RetentionTestRecord{}).
			Where("user_uuid = ? AND room_id = ? AND interval_days = ? AND passed = ?",
				userUUID, roomID, intervalDays, true).
			Count(&passedCount).Error
		if err != nil {
			return fmt.Errorf("无法查询通过记录: %w", err)
		}
		if passedCount > 0 {
			return ErrIntervalAlreadyPassed
		}

		if !Eligible(*masteredAt, intervalDays, false, now) {
			return ErrIntervalLocked
		}

		record := RetentionTestRecord{
			UserUUID:     userUUID,
			RoomID:       roomID,
			IntervalDays: intervalDays,
			Score:        score,
			Passed:       score >= PassScore,
			TakenAt:      now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("无法写入测验记录: %w", err)
		}
		result.Passed = record.Passed
		result.Score = score
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 提交后重算一次阶梯，带回True Master判定
	status, err := GetLadderStatus(userUUID, roomID, now)
	if err == nil {
		result.TrueMaster = status.TrueMaster
	}
	return &result, nil
}

// CountTrueMasterRooms 统计用户已达True Master的房间数。
func CountTrueMasterRooms(userUUID string, now time.Time) (int, error) {
	var profiles []struct {
		RoomID     string
		MasteredAt *time.Time
	}
	err := database.DB.Table("mastery_profiles").
		Select("room_id, mastered_at").
		Where("user_uuid = ? AND mastered_at IS NOT NULL AND deleted_at IS NULL", userUUID).
		Scan(&profiles).Error
	if err != nil {
		return 0, fmt.Errorf("无法读取精通房间: %w", err)
	}

	count := 0
	for _, p := range profiles {
		status, err := GetLadderStatus(userUUID, p.RoomID, now)
		if err != nil {
			continue
		}
		if status.TrueMaster {
			count++
		}
	}
	return count, nil
}
