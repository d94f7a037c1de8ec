package floor

import (
	"errors"
	"fmt"
	"time"

	"github.com/phototheology/palace-backend/internal/platform/config"
	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/phototheology/palace-backend/internal/room"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrGateClosed 表示前置楼层尚未精通，顺序闸门关闭
	ErrGateClosed = errors.New("前置楼层尚未精通")
	// ErrRequirementsNotMet 表示楼层自身的精通条件不齐备
	ErrRequirementsNotMet = errors.New("楼层精通条件不满足")
	// ErrInvalidFloor 表示层号越界
	ErrInvalidFloor = errors.New("层号无效")
)

// FloorStateDTO 是对外暴露的单层状态
type FloorStateDTO struct {
	FloorNumber        int
	CurriculumPercent  float64
	AssessmentPassed   bool
	TeachingDemoPassed bool
	MasteryAwardedAt   *time.Time
	GateOpen           bool
}

func validFloor(n int) bool {
	return n >= 1 && n <= FloorCount
}

// loadStateForUpdate 取出(用户,楼层)的状态行并上行锁，不存在时返回懒初始化的新行。
func loadStateForUpdate(tx *gorm.DB, userUUID string, floorNumber int) (*FloorMasteryState, error) {
	var state FloorMasteryState
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_uuid = ? AND floor_number = ?", userUUID, floorNumber).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &FloorMasteryState{UserUUID: userUUID, FloorNumber: floorNumber}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取楼层状态: %w", err)
	}
	return &state, nil
}

// masteredFloors 汇总用户已精通的楼层集合。
func masteredFloors(db *gorm.DB, userUUID string) (map[int]bool, error) {
	var states []FloorMasteryState
	err := db.Where("user_uuid = ? AND mastery_awarded_at IS NOT NULL", userUUID).Find(&states).Error
	if err != nil {
		return nil, fmt.Errorf("无法读取楼层精通集合: %w", err)
	}
	mastered := make(map[int]bool, len(states))
	for _, s := range states {
		mastered[s.FloorNumber] = true
	}
	return mastered, nil
}

// RecordAssessment 记录一次楼层评估。达到及格线时置位评估通过标记。
// 标记只会从false翻到true，重复提交低分不会撤销已通过的评估。
func RecordAssessment(userUUID string, floorNumber, score int) (bool, error) {
	if !validFloor(floorNumber) {
		return false, ErrInvalidFloor
	}

	passed := score >= AssessmentPassScore
	if !passed {
		return false, nil
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		state, err := loadStateForUpdate(tx, userUUID, floorNumber)
		if err != nil {
			return err
		}
		if state.AssessmentPassed {
			return nil
		}
		state.AssessmentPassed = true
		return tx.Save(state).Error
	})
	if err != nil {
		return false, fmt.Errorf("无法记录楼层评估: %w", err)
	}
	return true, nil
}

// RecordTeachingDemo 记录关键闸门层的试讲结果。
// 只有配置中的关键闸门层需要试讲，其它层直接拒绝。
func RecordTeachingDemo(userUUID string, floorNumber int, passed bool) error {
	if !validFloor(floorNumber) {
		return ErrInvalidFloor
	}
	if floorNumber != config.Cfg.Progression.CriticalGateFloor {
		return fmt.Errorf("楼层 %d 不需要试讲", floorNumber)
	}
	if !passed {
		return nil
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		state, err := loadStateForUpdate(tx, userUUID, floorNumber)
		if err != nil {
			return err
		}
		if state.TeachingDemoPassed {
			return nil
		}
		state.TeachingDemoPassed = true
		return tx.Save(state).Error
	})
	if err != nil {
		return fmt.Errorf("无法记录试讲结果: %w", err)
	}
	return nil
}

// AwardOutcome 说明一次授予请求的判定结果。
// 被拒绝时，Gate 给出顺序闸门卡在哪一层，
// Missing 给出楼层自身还缺哪些条件。
type AwardOutcome struct {
	Gate    GateDecision
	Missing []string
}

// AwardMastery 尝试授予用户一个楼层的精通。
// 先过顺序闸门(前置楼层全部精通)，再查楼层自身条件；
// 已精通的楼层重复授予是幂等的无操作。
func AwardMastery(userUUID string, floorNumber int, now time.Time) (*AwardOutcome, error) {
	if !validFloor(floorNumber) {
		return nil, ErrInvalidFloor
	}

	var outcome AwardOutcome
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		mastered, err := masteredFloors(tx, userUUID)
		if err != nil {
			return err
		}

		outcome.Gate = EvaluateGate(mastered, floorNumber)
		if !outcome.Gate.Eligible {
			return ErrGateClosed
		}

		state, err := loadStateForUpdate(tx, userUUID, floorNumber)
		if err != nil {
			return err
		}
		if state.MasteryAwardedAt != nil {
			return nil
		}

		outcome.Missing = MissingRequirements(state, config.Cfg.Progression.CriticalGateFloor)
		if len(outcome.Missing) > 0 {
			return ErrRequirementsNotMet
		}

		t := now
		state.MasteryAwardedAt = &t
		return tx.Save(state).Error
	})
	if err != nil {
		return &outcome, err
	}
	return &outcome, nil
}

// RefreshCurriculumInTx 在调用方事务中重算用户在某层的课程完成度：
// 该层有进度行(有过活动)的房间数 / 该层房间总数。
// roomID 是刚刚产生活动的房间，用于定位楼层。
func RefreshCurriculumInTx(tx *gorm.DB, userUUID, roomID string) error {
	info, ok := room.GetRoomInfoByID(roomID)
	if !ok {
		return fmt.Errorf("未知的房间: %s", roomID)
	}

	floorRooms := room.GetRoomIDsByFloor(info.Floor)
	total := len(floorRooms)
	if total == 0 {
		return nil
	}

	var engaged int64
	err := tx.Table("mastery_profiles").
		Where("user_uuid = ? AND room_id IN ? AND deleted_at IS NULL", userUUID, floorRooms).
		Count(&engaged).Error
	if err != nil {
		return fmt.Errorf("无法统计楼层课程进度: %w", err)
	}

	state, err := loadStateForUpdate(tx, userUUID, info.Floor)
	if err != nil {
		return err
	}

	percent := float64(engaged) / float64(total) * 100
	if percent > 100 {
		percent = 100
	}
	if percent == state.CurriculumPercent {
		return nil
	}
	state.CurriculumPercent = percent
	return tx.Save(state).Error
}

// GetFloorStates 返回用户在全部楼层上的状态，含顺序闸门的开合判定。
func GetFloorStates(userUUID string) ([]FloorStateDTO, error) {
	var states []FloorMasteryState
	err := database.DB.Where("user_uuid = ?", userUUID).Find(&states).Error
	if err != nil {
		return nil, fmt.Errorf("无法读取楼层状态: %w", err)
	}

	byFloor := make(map[int]*FloorMasteryState, len(states))
	mastered := make(map[int]bool)
	for i := range states {
		byFloor[states[i].FloorNumber] = &states[i]
		if states[i].MasteryAwardedAt != nil {
			mastered[states[i].FloorNumber] = true
		}
	}

	result := make([]FloorStateDTO, 0, FloorCount)
	for f := 1; f <= FloorCount; f++ {
		dto := FloorStateDTO{
			FloorNumber: f,
			GateOpen:    EvaluateGate(mastered, f).Eligible,
		}
		if s, ok := byFloor[f]; ok {
			dto.CurriculumPercent = s.CurriculumPercent
			dto.AssessmentPassed = s.AssessmentPassed
			dto.TeachingDemoPassed = s.TeachingDemoPassed
			dto.MasteryAwardedAt = s.MasteryAwardedAt
		}
		result = append(result, dto)
	}
	return result, nil
}
