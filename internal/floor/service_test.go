package floor

import (
	"fmt"
	"testing"
	"time"

	"github.com/phototheology/palace-backend/internal/platform/config"
	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// useServiceTestDB 把全局数据库切换到一个独立的内存SQLite，
// 让事务型服务函数可以在真实的SQL路径上测试。
func useServiceTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&FloorMasteryState{}))

	prevDB, prevCfg := database.DB, config.Cfg
	database.DB = db
	config.Cfg = &config.Config{
		Progression: config.ProgressionConfig{CriticalGateFloor: 7},
	}
	t.Cleanup(func() {
		database.DB = prevDB
		config.Cfg = prevCfg
	})
}

// seedAwardedFloor 直接写入一条已精通的楼层状态行。
func seedAwardedFloor(t *testing.T, userUUID string, floorNumber int, at time.Time) {
	t.Helper()
	state := FloorMasteryState{
		UserUUID:           userUUID,
		FloorNumber:        floorNumber,
		CurriculumPercent:  100,
		AssessmentPassed:   true,
		TeachingDemoPassed: floorNumber == config.Cfg.Progression.CriticalGateFloor,
		MasteryAwardedAt:   &at,
	}
	require.NoError(t, database.DB.Create(&state).Error)
}

// seedReadyFloor 写入一条条件齐备但尚未授予的楼层状态行。
func seedReadyFloor(t *testing.T, userUUID string, floorNumber int) {
	t.Helper()
	state := FloorMasteryState{
		UserUUID:          userUUID,
		FloorNumber:       floorNumber,
		CurriculumPercent: 100,
		AssessmentPassed:  true,
	}
	require.NoError(t, database.DB.Create(&state).Error)
}

func TestAwardMastery_GateClosedReportsNextFloor(t *testing.T) {
	useServiceTestDB(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// 楼层1还没精通，楼层2的授予应被顺序闸门拦下
	outcome, err := AwardMastery("u-gate", 2, now)
	require.ErrorIs(t, err, ErrGateClosed)
	assert.False(t, outcome.Gate.Eligible)
	assert.Equal(t, 1, outcome.Gate.NextRequiredFloor)

	// 被拦下的请求不得留下任何授予痕迹
	var count int64
	require.NoError(t, database.DB.Model(&FloorMasteryState{}).
		Where("user_uuid = ? AND mastery_awarded_at IS NOT NULL", "u-gate").
		Count(&count).Error)
	assert.Zero(t, count)
}

func TestAwardMastery_RequirementsNotMetListsMissing(t *testing.T) {
	useServiceTestDB(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// 课程已满但评估未过
	require.NoError(t, database.DB.Create(&FloorMasteryState{
		UserUUID:          "u-req",
		FloorNumber:       1,
		CurriculumPercent: 100,
	}).Error)

	outcome, err := AwardMastery("u-req", 1, now)
	require.ErrorIs(t, err, ErrRequirementsNotMet)
	assert.Equal(t, []string{RequirementAssessment}, outcome.Missing)
}

func TestAwardMastery_AwardIsIdempotent(t *testing.T) {
	useServiceTestDB(t)
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedReadyFloor(t, "u-idem", 1)

	_, err := AwardMastery("u-idem", 1, first)
	require.NoError(t, err)

	var state FloorMasteryState
	require.NoError(t, database.DB.Where("user_uuid = ? AND floor_number = ?", "u-idem", 1).First(&state).Error)
	require.NotNil(t, state.MasteryAwardedAt)
	awardedAt := *state.MasteryAwardedAt
	assert.WithinDuration(t, first, awardedAt, time.Second)

	// 48小时后的重复授予是无操作，时间戳保持首次的值
	_, err = AwardMastery("u-idem", 1, first.Add(48*time.Hour))
	require.NoError(t, err)

	require.NoError(t, database.DB.Where("user_uuid = ? AND floor_number = ?", "u-idem", 1).First(&state).Error)
	require.NotNil(t, state.MasteryAwardedAt)
	assert.True(t, state.MasteryAwardedAt.Equal(awardedAt))
}

func TestAwardMastery_CriticalFloorNeedsTeachingDemo(t *testing.T) {
	useServiceTestDB(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for f := 1; f <= 6; f++ {
		seedAwardedFloor(t, "u-crit", f, now.AddDate(0, 0, -7+f))
	}
	seedReadyFloor(t, "u-crit", 7)

	// 关键闸门层缺试讲时拒绝
	outcome, err := AwardMastery("u-crit", 7, now)
	require.ErrorIs(t, err, ErrRequirementsNotMet)
	assert.Equal(t, []string{RequirementTeachingDemo}, outcome.Missing)

	// 试讲通过后放行
	require.NoError(t, RecordTeachingDemo("u-crit", 7, true))
	_, err = AwardMastery("u-crit", 7, now)
	require.NoError(t, err)

	var state FloorMasteryState
	require.NoError(t, database.DB.Where("user_uuid = ? AND floor_number = ?", "u-crit", 7).First(&state).Error)
	assert.NotNil(t, state.MasteryAwardedAt)
}

func TestRecordAssessment_FlagIsLatched(t *testing.T) {
	useServiceTestDB(t)

	passed, err := RecordAssessment("u-latch", 1, 85)
	require.NoError(t, err)
	assert.True(t, passed)

	// 后续低分不撤销已通过的评估
	passed, err = RecordAssessment("u-latch", 1, 40)
	require.NoError(t, err)
	assert.False(t, passed)

	var state FloorMasteryState
	require.NoError(t, database.DB.Where("user_uuid = ? AND floor_number = ?", "u-latch", 1).First(&state).Error)
	assert.True(t, state.AssessmentPassed)
}

func TestRecordTeachingDemo_OnlyCriticalFloor(t *testing.T) {
	useServiceTestDB(t)

	err := RecordTeachingDemo("u-demo", 3, true)
	assert.Error(t, err)

	var count int64
	require.NoError(t, database.DB.Model(&FloorMasteryState{}).
		Where("user_uuid = ?", "u-demo").Count(&count).Error)
	assert.Zero(t, count)
}
