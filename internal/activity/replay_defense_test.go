package activity

import (
	"fmt"
	"testing"

	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newReplayTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&UsedSessionID{}))
	return db
}

func TestReleaseSessionRowAllowsResubmission(t *testing.T) {
	db := newReplayTestDB(t)
	const sid = "0198b3a0-0000-7000-8000-00000000c0de"

	require.NoError(t, db.Create(&UsedSessionID{SessionID: sid}).Error)

	// 未退还时同一ID不可再次写入
	err := db.Create(&UsedSessionID{SessionID: sid}).Error
	require.Error(t, err)
	assert.True(t, database.IsDuplicateKeyError(err))

	// 退还后同一凭据可以重新消费
	require.NoError(t, releaseSessionRow(db, sid))
	assert.NoError(t, db.Create(&UsedSessionID{SessionID: sid}).Error)
}

func TestReleaseSessionRowUnknownIDIsNoop(t *testing.T) {
	db := newReplayTestDB(t)

	assert.NoError(t, releaseSessionRow(db, "never-used"))
}
