package activity

import (
	"encoding/json"
	"fmt"

	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/phototheology/palace-backend/internal/platform/metadata"
	"github.com/phototheology/palace-backend/internal/room"
)

// RebuildAndApplyActivities 在缓存重建时，重放自上次快照以来的所有新活动。
// profile侧的视图由WarmupCache直接从SQLite全量重建，这里只需要补齐
// 房间完成数（快照之后的增量只存在于事件日志中）并推进检查点。
// 调用方必须持有room模块的写锁。
func RebuildAndApplyActivities() error {
	// 1. 获取上一次快照时处理的最后一个activity ID
	lastSnapshotID, err := metadata.GetLastSnapshotID()
	if err != nil {
		return fmt.Errorf("无法获取上一次快照的activity ID: %w", err)
	}

	// 2. 从SQLite中获取所有在这之后的活动记录
	var incremental []Activity
	if err := database.DB.Where("id > ?", lastSnapshotID).Order("id asc").Find(&incremental).Error; err != nil {
		return fmt.Errorf("无法从SQLite读取增量活动: %w", err)
	}

	var lastProcessedID uint = lastSnapshotID

	if len(incremental) > 0 {
		fmt.Printf("正在重放 %d 条自上次快照以来的新活动...\n", len(incremental))

		// 3. 一次性从Redis获取所有房间的当前统计数据到内存中
		statsMapJSON, err := database.RDB.HGetAll(database.Ctx, room.StatsKey).Result()
		if err != nil {
			return fmt.Errorf("无法从Redis获取完整的房间统计数据: %w", err)
		}
		inMemoryStats := make(map[string]room.RoomStats)
		for id, jsonStr := range statsMapJSON {
			var stats room.RoomStats
			if err := json.Unmarshal([]byte(jsonStr), &stats); err == nil {
				inMemoryStats[id] = stats
			}
		}

		// 4. 在内存中批量累加所有增量活动
		for _, a := range incremental {
			stats := inMemoryStats[a.RoomID]
			stats.Completions++
			inMemoryStats[a.RoomID] = stats
			lastProcessedID = a.ID
		}

		// 5. 使用Pipeline一次性将所有更新后的数据写回Redis，并同步内存权重树
		pipe := database.RDB.Pipeline()
		for id, stats := range inMemoryStats {
			statsJSON, _ := json.Marshal(stats)
			pipe.HSet(database.Ctx, room.StatsKey, id, statsJSON)
			if index, ok := room.GetRoomIndexByID(id); ok {
				room.UpdateWeightUnsafe(index, room.CalculateWeightForCompletions(float64(stats.Completions)))
			}
		}
		pipe.Set(database.Ctx, metadata.RedisLastProcessedActivityIDKey, lastProcessedID, 0)
		pipe.IncrBy(database.Ctx, metadata.RedisTotalActivitiesKey, int64(len(incremental)))

		if _, err := pipe.Exec(database.Ctx); err != nil {
			return fmt.Errorf("批量更新Redis失败: %w", err)
		}
	} else {
		fmt.Println("没有新的活动记录需要重放。")
	}

	// 6. 更新Activity Processor的内部状态，让它从正确的位置继续
	globalActivityProcessor.processMutex.Lock()
	if lastProcessedID > globalActivityProcessor.lastProcessedActivityID {
		globalActivityProcessor.lastProcessedActivityID = lastProcessedID
	}
	globalActivityProcessor.processMutex.Unlock()

	return nil
}
