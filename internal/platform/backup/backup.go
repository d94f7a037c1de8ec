package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/phototheology/palace-backend/internal/platform/metadata"
	"github.com/phototheology/palace-backend/internal/profile"
	"github.com/phototheology/palace-backend/internal/room"
	"github.com/phototheology/palace-backend/internal/user"
	"github.com/phototheology/palace-backend/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const backupInterval = 10 * time.Minute // 定时备份频率

var backupMutex sync.Mutex // 避免意外竞态

// StartBackupScheduler 启动一个后台Goroutine来定期执行数据库备份
// 它接收一个lifecycle.Handle来管理其生命周期
func StartBackupScheduler(handle *lifecycle.Handle) {
	defer handle.Close() // 确保在退出时通知管理器
	fmt.Println("进度数据备份调度器已启动。")

	for {
		// 使用可中断的休眠来代替ticker。
		// 这使得整个循环可以在收到停机信号时立刻从休眠中唤醒并退出。
		if err := handle.Sleep(backupInterval); err != nil {
			fmt.Printf("备份调度器: 休眠被中断，正在关闭...\n")
			return
		}

		if !database.IsRedisHealthy() {
			fmt.Println("备份调度器: 检测到Redis不可用，跳过本次备份。")
			continue
		}

		fmt.Println("备份调度器: 正在执行定时备份...")
		if err := CreateConsistentSnapshotInDB(handle.Ctx()); err != nil {
			// 如果错误是由于停机信号导致的，则静默退出
			if err != context.Canceled && err != context.DeadlineExceeded {
				fmt.Printf("备份调度器错误: 执行快照备份失败: %v\n", err)
			}
		} else {
			fmt.Println("备份调度器: 快照备份成功。")
		}
	}
}

// CreateConsistentSnapshotInDB 执行一次原子的、一致的快照备份：
// 把Redis侧的房间完成数和脏用户的汇总统计回写到SQLite，并推进检查点。
func CreateConsistentSnapshotInDB(ctx context.Context) (err error) {
	backupMutex.Lock()
	defer backupMutex.Unlock()

	var lastActivityIDCmd *redis.StringCmd
	var totalActivitiesCmd *redis.StringCmd
	var roomStatsMapCmd *redis.MapStringStringCmd

	var dirtyUserIDs []string
	var dirtyUserStats []interface{}

	transferred, err := func() (bool, error) {
		// profile 模块在两批Redis操作期间保持锁定，确保dirtyUserIDs和dirtyUserStats不撕裂
		profile.LockRepository()
		defer profile.UnlockRepository()

		dirtySetExists, err := database.RDB.Exists(ctx, profile.DirtySetKey).Result()
		if err != nil {
			return false, fmt.Errorf("无法检查Redis中 DirtySetKey 是否存在: %w", err)
		}

		// 1. 使用原子事务(TxPipeline)从Redis获取快照
		pipe := database.RDB.TxPipeline()
		lastActivityIDCmd = pipe.Get(database.Ctx, metadata.RedisLastProcessedActivityIDKey)
		totalActivitiesCmd = pipe.Get(database.Ctx, metadata.RedisTotalActivitiesKey)
		roomStatsMapCmd = pipe.HGetAll(database.Ctx, room.StatsKey)
		dirtyUserIDsCmd := pipe.SMembers(database.Ctx, profile.DirtySetKey)
		if dirtySetExists > 0 {
			pipe.Rename(database.Ctx, profile.DirtySetKey, profile.ProcessingDirtySetKey)
		}
		_, err = pipe.Exec(database.Ctx)

		if err != nil {
			return false, fmt.Errorf("无法从Redis原子地获取快照数据: %w", err)
		}
		// TxPipeline 成功后，transferred为true，代表 DirtySetKey 已被消费

		dirtyUserIDs, err = dirtyUserIDsCmd.Result()
		if err != nil {
			return true, fmt.Errorf("获取 dirtyUserIDs 的结果时失败: %w", err)
		}
		if len(dirtyUserIDs) > 0 {
			dirtyUserStats, err = database.RDB.HMGet(database.Ctx, profile.StatsKey, dirtyUserIDs...).Result()
			if err != nil {
				return true, fmt.Errorf("获取 dirtyUserStats 的结果时失败: %w", err)
			}
		}

		return true, nil
	}()

	if transferred {
		defer func() {
			if err != nil {
				pipe := database.RDB.TxPipeline()
				pipe.SUnionStore(database.Ctx, profile.DirtySetKey, profile.DirtySetKey, profile.ProcessingDirtySetKey)
				pipe.Del(database.Ctx, profile.ProcessingDirtySetKey)
				pipe.Exec(database.Ctx)
			} else {
				database.RDB.Del(database.Ctx, profile.ProcessingDirtySetKey)
			}
		}()
	}

	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// 2. 准备将写入SQLite的数据
	lastActivityIDUint64, err := lastActivityIDCmd.Uint64()
	if err != nil {
		return fmt.Errorf("获取 lastActivityID 的结果时失败: %w", err)
	}
	lastActivityID := uint(lastActivityIDUint64)

	lastSnapshotActivityID, err := metadata.GetLastSnapshotActivityID(database.DB)
	if err != nil {
		return fmt.Errorf("获取 lastSnapshotActivityID 失败: %w", err)
	}
	// 无需备份
	if lastActivityID == lastSnapshotActivityID {
		return nil
	}

	totalActivities, err := totalActivitiesCmd.Int64()
	if err != nil {
		return fmt.Errorf("获取 totalActivities 的结果时失败: %w", err)
	}

	roomStatsMap, err := roomStatsMapCmd.Result()
	if err != nil {
		return fmt.Errorf("获取 roomStatsMap 的结果时失败: %w", err)
	}
	roomsToUpsert := make([]room.Room, 0, len(roomStatsMap))
	for roomID, statsJSON := range roomStatsMap {
		var stats room.RoomStats
		if err := json.Unmarshal([]byte(statsJSON), &stats); err != nil {
			return fmt.Errorf("备份警告: 解析房间 %s 的数据失败: %w", roomID, err)
		}

		info, ok := room.GetRoomInfoByID(roomID)
		if !ok {
			return fmt.Errorf("备份警告: 在内存目录中找不到ID为 %s 的房间", roomID)
		}

		roomsToUpsert = append(roomsToUpsert, room.Room{
			RoomID:      roomID, // 额外包含业务主键
			Name:        info.Name,
			Description: info.Description,
			Floor:       info.Floor,
			Completions: stats.Completions,
		})
	}

	usersToUpsert := make([]user.User, 0, len(dirtyUserIDs))
	for i, userID := range dirtyUserIDs {
		userStatsJSON, ok := dirtyUserStats[i].(string)
		if !ok {
			continue // 统计缺失的用户跳过本轮回写
		}

		var userStats profile.ProfileStats
		if err := json.Unmarshal([]byte(userStatsJSON), &userStats); err != nil {
			return fmt.Errorf("警告：解析用户 %s 的统计数据JSON失败: %w", userID, err)
		}

		usersToUpsert = append(usersToUpsert, user.User{
			UUID:            userID,
			TotalXP:         userStats.TotalXP,
			RoomsMastered:   userStats.RoomsMastered,
			ActivitiesCount: userStats.Activities,
		})
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// 3. 将快照数据持久化到SQLite
	const maxRetry = 3
	const delay = 50 * time.Millisecond
	for i := 0; i < maxRetry; i++ {
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			// a. 持久化room模块的数据
			// 冲突的判断依据是room_id，模拟主键唯一
			if len(roomsToUpsert) > 0 {
				err = tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "room_id"}},
					DoUpdates: clause.AssignmentColumns([]string{"completions"}),
				}).Create(&roomsToUpsert).Error
				if err != nil {
					return fmt.Errorf("批量更新房间数据失败: %w", err)
				}
			}

			// b. 持久化user模块的汇总数据
			// 如果UUID已存在，则更新汇总字段和updated_at；否则，插入新行。
			if len(usersToUpsert) > 0 {
				err = tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "uuid"}},
					DoUpdates: clause.AssignmentColumns([]string{"total_xp", "rooms_mastered", "activities_count", "updated_at"}),
				}).Create(&usersToUpsert).Error
				if err != nil {
					return fmt.Errorf("持久化用户汇总数据失败: %w", err)
				}
			}

			// c. 更新metadata模块的元数据
			if err := metadata.SetLastSnapshotActivityID(tx, lastActivityID); err != nil {
				return fmt.Errorf("更新元数据 LastSnapshotActivityID 失败: %w", err)
			}
			if err := metadata.SetSnapshotTotalActivities(tx, totalActivities); err != nil {
				return fmt.Errorf("更新元数据 SnapshotTotalActivities 失败: %w", err)
			}

			return nil
		})

		if err == nil || !database.IsRetryableError(err) {
			break
		}
		time.Sleep(delay)
	}
	return err
}
