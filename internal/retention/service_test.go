package retention

import (
	"fmt"
	"testing"
	"time"

	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/phototheology/palace-backend/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// useServiceTestDB 把全局数据库切换到一个独立的内存SQLite。
func useServiceTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&profile.MasteryProfile{}, &RetentionTestRecord{}))

	prevDB := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prevDB })
}

// seedMasteredRoom 写入一条已精通的房间进度行，作为阶梯的计时起点。
func seedMasteredRoom(t *testing.T, userUUID, roomID string, masteredAt time.Time) {
	t.Helper()
	require.NoError(t, database.DB.Create(&profile.MasteryProfile{
		UserUUID:   userUUID,
		RoomID:     roomID,
		XP:         profile.MasteryThreshold(),
		MasteredAt: &masteredAt,
	}).Error)
}

func countAttempts(t *testing.T, userUUID, roomID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, database.DB.Model(&RetentionTestRecord{}).
		Where("user_uuid = ? AND room_id = ?", userUUID, roomID).
		Count(&count).Error)
	return count
}

func TestSubmitTest_RoomNotMastered(t *testing.T) {
	useServiceTestDB(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	_, err := SubmitTest("u-rt", "imagination", 7, 90, now)
	assert.ErrorIs(t, err, ErrRoomNotMastered)
}

func TestSubmitTest_InvalidInterval(t *testing.T) {
	useServiceTestDB(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	_, err := SubmitTest("u-rt", "imagination", 10, 90, now)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestSubmitTest_LockedBeforeUnlockDay(t *testing.T) {
	useServiceTestDB(t)
	mastered := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	seedMasteredRoom(t, "u-rt", "imagination", mastered)

	// 第6天提交7天档：未到解锁点，拒绝且不留日志
	_, err := SubmitTest("u-rt", "imagination", 7, 95, mastered.AddDate(0, 0, 6))
	require.ErrorIs(t, err, ErrIntervalLocked)
	assert.Zero(t, countAttempts(t, "u-rt", "imagination"))
}

func TestSubmitTest_PassThenResubmitRejected(t *testing.T) {
	useServiceTestDB(t)
	mastered := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	seedMasteredRoom(t, "u-rt", "imagination", mastered)
	day7 := mastered.AddDate(0, 0, 7)

	result, err := SubmitTest("u-rt", "imagination", 7, 85, day7)
	require.NoError(t, err)
	assert.True(t, result.Passed)

	// 已通过的档位不再接受提交
	_, err = SubmitTest("u-rt", "imagination", 7, 100, day7.Add(time.Hour))
	require.ErrorIs(t, err, ErrIntervalAlreadyPassed)
	assert.EqualValues(t, 1, countAttempts(t, "u-rt", "imagination"))
}

func TestSubmitTest_FailedAttemptIsAppended(t *testing.T) {
	useServiceTestDB(t)
	mastered := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	seedMasteredRoom(t, "u-rt", "imagination", mastered)
	day7 := mastered.AddDate(0, 0, 7)

	result, err := SubmitTest("u-rt", "imagination", 7, 60, day7)
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.EqualValues(t, 1, countAttempts(t, "u-rt", "imagination"))

	// 不合格不封档：之后仍可重考并通过
	result, err = SubmitTest("u-rt", "imagination", 7, 90, day7.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.EqualValues(t, 2, countAttempts(t, "u-rt", "imagination"))
}

func TestSubmitTest_TrueMasterAtDayThirty(t *testing.T) {
	useServiceTestDB(t)
	mastered := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	seedMasteredRoom(t, "u-rt", "imagination", mastered)

	result, err := SubmitTest("u-rt", "imagination", 7, 88, mastered.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.False(t, result.TrueMaster)

	result, err = SubmitTest("u-rt", "imagination", 14, 82, mastered.AddDate(0, 0, 14))
	require.NoError(t, err)
	assert.False(t, result.TrueMaster)

	// 第30天通过最后一档，三档齐全且满30天
	result, err = SubmitTest("u-rt", "imagination", 30, 91, mastered.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.True(t, result.TrueMaster)

	status, err := GetLadderStatus("u-rt", "imagination", mastered.AddDate(0, 0, 31))
	require.NoError(t, err)
	assert.True(t, status.TrueMaster)
}
