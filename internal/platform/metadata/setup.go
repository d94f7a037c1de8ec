package metadata

import (
	"fmt"
	"strconv"

	"github.com/phototheology/palace-backend/internal/platform/database"
)

// PrimeCachedDB 负责初始化metadata模块的数据库部分并预热Redis检查点
func PrimeCachedDB() error {
	if err := database.DB.AutoMigrate(&Metadata{}); err != nil {
		return fmt.Errorf("无法迁移metadata表: %w", err)
	}
	fmt.Println("Metadata数据库表迁移成功。")

	return WarmupCache()
}

// WarmupCache 将SQLite中最近一次快照的检查点写入Redis。
// 活动处理器将从这个检查点之后继续应用事件。
func WarmupCache() error {
	lastID, err := GetLastSnapshotActivityID(database.DB)
	if err != nil {
		return fmt.Errorf("无法读取快照活动ID: %w", err)
	}
	total, err := GetSnapshotTotalActivities(database.DB)
	if err != nil {
		return fmt.Errorf("无法读取快照活动总数: %w", err)
	}

	pipe := database.RDB.Pipeline()
	pipe.Set(database.Ctx, RedisLastProcessedActivityIDKey, strconv.FormatUint(uint64(lastID), 10), 0)
	pipe.Set(database.Ctx, RedisTotalActivitiesKey, strconv.FormatInt(total, 10), 0)
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热元数据检查点到Redis失败: %w", err)
	}

	fmt.Printf("元数据检查点已预热 (last_activity_id=%d, total=%d)。\n", lastID, total)
	return nil
}

// GetLastSnapshotID 是一个便捷封装，供活动处理器在启动时读取起始检查点。
func GetLastSnapshotID() (uint, error) {
	return GetLastSnapshotActivityID(database.DB)
}
