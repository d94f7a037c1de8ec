package profile

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newXPTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&MasteryProfile{}))
	return db
}

func TestApplyXPInTx_LazyCreateAndAccumulate(t *testing.T) {
	db := newXPTestDB(t)
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	// 首次入账懒创建进度行
	result, err := ApplyXPInTx(db, "u-xp", "imagination", 50, now)
	require.NoError(t, err)
	assert.Equal(t, 50, result.XP)
	assert.Equal(t, 1, result.Level)

	// 累计到250触发升级
	result, err = ApplyXPInTx(db, "u-xp", "imagination", 200, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 250, result.XP)
	assert.Equal(t, 2, result.Level)
}

func TestApplyXPInTx_MasteredAtSetOnlyOnce(t *testing.T) {
	db := newXPTestDB(t)
	first := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	result, err := ApplyXPInTx(db, "u-xp", "imagination", MasteryThreshold(), first)
	require.NoError(t, err)
	assert.True(t, result.MasteredNow)

	var prof MasteryProfile
	require.NoError(t, db.Where("user_uuid = ? AND room_id = ?", "u-xp", "imagination").First(&prof).Error)
	require.NotNil(t, prof.MasteredAt)
	masteredAt := *prof.MasteredAt
	assert.WithinDuration(t, first, masteredAt, time.Second)

	// 精通之后继续入账：XP照加，时间戳不动
	result, err = ApplyXPInTx(db, "u-xp", "imagination", 50, first.Add(72*time.Hour))
	require.NoError(t, err)
	assert.False(t, result.MasteredNow)
	assert.Equal(t, MasteryThreshold()+50, result.XP)

	require.NoError(t, db.Where("user_uuid = ? AND room_id = ?", "u-xp", "imagination").First(&prof).Error)
	require.NotNil(t, prof.MasteredAt)
	assert.True(t, prof.MasteredAt.Equal(masteredAt))
}

func TestApplyXPInTx_RejectsNegativeDelta(t *testing.T) {
	db := newXPTestDB(t)

	_, err := ApplyXPInTx(db, "u-xp", "imagination", -10, time.Now())
	assert.Error(t, err)
}
