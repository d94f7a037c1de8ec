package metadata

import (
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- 通用访问器 ---

// GetValue 从metadata表中读取指定键的值。键不存在时返回空字符串。
func GetValue(db *gorm.DB, key string) (string, error) {
	var meta Metadata
	err := db.Where("key = ?", key).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return meta.Value, nil
}

// SetValue 在事务中创建或更新指定键的值。
func SetValue(db *gorm.DB, key, value string) error {
	// 使用GORM的OnConflict子句实现原子的upsert。
	meta := Metadata{
		Key:   key,
		Value: value,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&meta).Error
}

// --- 类型转换辅助函数 ---

// GetLastSnapshotActivityID 读取并解析最近一次快照的活动ID。
func GetLastSnapshotActivityID(db *gorm.DB) (uint, error) {
	valueStr, err := GetValue(db, LastSnapshotActivityIDKey)
	if err != nil {
		return 0, err
	}
	if valueStr == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(valueStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("无法解析元数据 '%s' 的值: %w", LastSnapshotActivityIDKey, err)
	}
	return uint(id), nil
}

// SetLastSnapshotActivityID 格式化并写入最近一次快照的活动ID。
func SetLastSnapshotActivityID(db *gorm.DB, activityID uint) error {
	valueStr := strconv.FormatUint(uint64(activityID), 10)
	return SetValue(db, LastSnapshotActivityIDKey, valueStr)
}

// GetSnapshotTotalActivities 读取并解析快照时的活动总数。
func GetSnapshotTotalActivities(db *gorm.DB) (int64, error) {
	valueStr, err := GetValue(db, SnapshotTotalActivitiesKey)
	if err != nil {
		return 0, err
	}
	if valueStr == "" {
		return 0, nil
	}
	count, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("无法解析元数据 '%s' 的值: %w", SnapshotTotalActivitiesKey, err)
	}
	return count, nil
}

// SetSnapshotTotalActivities 格式化并写入快照时的活动总数。
func SetSnapshotTotalActivities(db *gorm.DB, count int64) error {
	valueStr := strconv.FormatInt(count, 10)
	return SetValue(db, SnapshotTotalActivitiesKey, valueStr)
}
