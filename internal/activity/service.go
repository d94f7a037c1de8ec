package activity

import (
	"errors"
	"fmt"
	"time"

	"github.com/phototheology/palace-backend/internal/floor"
	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/phototheology/palace-backend/internal/profile"
	"github.com/phototheology/palace-backend/internal/room"
	"github.com/phototheology/palace-backend/internal/streak"
	"github.com/phototheology/palace-backend/internal/user"
	"gorm.io/gorm"
)

// ErrUnknownRoom 表示提交的房间不在目录中
var ErrUnknownRoom = errors.New("未知的房间")

// SubmissionDTO 是一次活动提交在事务成功后的完整结果。
type SubmissionDTO struct {
	XPAwarded    int
	RoomXP       int
	RoomLevel    int
	RoomTitle    string
	RoomMastered bool
	StreakResult *streak.Result
}

// RecordActivity 在单个数据库事务中入账一次学习活动：
// 追加事件日志、XP入账、推进连击、重算楼层课程进度，
// 提交成功后把事件交给处理器更新Redis视图。
// 调用方负责签名验证和防重放检查。
func RecordActivity(userUUID, roomID, sessionID string, effort profile.ActivityEffort, now time.Time) (*SubmissionDTO, error) {
	if _, ok := room.GetRoomIndexByID(roomID); !ok {
		return nil, ErrUnknownRoom
	}

	// 首次活动时把临时用户转正
	if err := user.ActivateUser(userUUID); err != nil {
		return nil, fmt.Errorf("无法激活用户: %w", err)
	}

	xp := profile.CalculateXP(effort)

	var record Activity
	var result SubmissionDTO
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		applied, err := profile.ApplyXPInTx(tx, userUUID, roomID, xp, now)
		if err != nil {
			return err
		}

		streakResult, err := streak.ApplyInTx(tx, userUUID, now)
		if err != nil {
			return err
		}

		if err := floor.RefreshCurriculumInTx(tx, userUUID, roomID); err != nil {
			return err
		}

		record = Activity{
			UserUUID:          userUUID,
			RoomID:            roomID,
			SessionID:         sessionID,
			DrillCompleted:    effort.DrillCompleted,
			ExerciseCompleted: effort.ExerciseCompleted,
			PerfectScore:      effort.PerfectScore,
			TimeBonus:         effort.TimeBonus,
			DrillScore:        effort.DrillScore,
			XPAwarded:         xp,
			RoomMastered:      applied.MasteredNow,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("无法写入活动日志: %w", err)
		}

		result = SubmissionDTO{
			XPAwarded:    xp,
			RoomXP:       applied.XP,
			RoomLevel:    applied.Level,
			RoomTitle:    profile.LevelTitle(applied.Level),
			RoomMastered: applied.MasteredNow,
			StreakResult: streakResult,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 事务已提交，异步更新Redis视图
	submitActivityToQueue(record)
	return &result, nil
}
