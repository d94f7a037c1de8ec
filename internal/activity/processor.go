package activity

import (
	"container/heap"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/phototheology/palace-backend/internal/platform/metadata"
	"github.com/phototheology/palace-backend/internal/profile"
	"github.com/phototheology/palace-backend/internal/room"
	"github.com/phototheology/palace-backend/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
)

// activityMinHeap 实现了 container/heap 接口
type activityMinHeap []Activity

func (h activityMinHeap) Len() int            { return len(h) }
func (h activityMinHeap) Less(i, j int) bool  { return h[i].ID < h[j].ID }
func (h activityMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *activityMinHeap) Push(x interface{}) { *h = append(*h, x.(Activity)) }
func (h *activityMinHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// activityProcessor 是一个单一写入者，负责按顺序处理活动事件并更新Redis
type activityProcessor struct {
	activityChan            chan Activity
	lastProcessedActivityID uint
	buffer                  *activityMinHeap
	processMutex            sync.Mutex
	isShutdown              bool
	shutdownMutex           sync.Mutex
}

// globalActivityProcessor 是一个私有的、全局的处理器实例
var globalActivityProcessor = activityProcessor{
	activityChan: make(chan Activity, 10000),
}

// initializeProcessor 初始化全局的activityProcessor实例
func initializeProcessor(startID uint) {
	globalActivityProcessor.lastProcessedActivityID = startID
	h := &activityMinHeap{}
	heap.Init(h)
	globalActivityProcessor.buffer = h
}

// startProcessor 启动处理器的主处理循环和巡查员
func startProcessor(gracefulHandle, forcefulHandle *lifecycle.Handle) {
	defer gracefulHandle.Close()
	defer forcefulHandle.Close()
	fmt.Println("活动处理器 (Activity Processor) 已启动。")

	// 立刻收集缺失的活动
	globalActivityProcessor.checkAndRequeueMissedActivities(gracefulHandle.Ctx())
	// 巡查员的生命周期与优雅关闭信号绑定
	patrollerCtx, patrollerCancel := context.WithCancel(gracefulHandle.Ctx())
	defer patrollerCancel() // 确保在主处理器退出时，巡查员也被关闭
	go globalActivityProcessor.runPatroller(patrollerCtx)

	globalActivityProcessor.runMainLoop(gracefulHandle, forcefulHandle)
}

// submitActivityToQueue 供Handler调用的方法，用于提交新的活动任务
func submitActivityToQueue(activity Activity) {
	globalActivityProcessor.shutdownMutex.Lock()
	if globalActivityProcessor.isShutdown {
		globalActivityProcessor.shutdownMutex.Unlock()
		fmt.Printf("警告: 活动处理队列已关闭，放弃处理 activity ID: %d\n", activity.ID)
		return
	}
	select {
	case globalActivityProcessor.activityChan <- activity:
		globalActivityProcessor.shutdownMutex.Unlock()
	default:
		globalActivityProcessor.shutdownMutex.Unlock()
		fmt.Printf("警告: 活动处理队列已满，暂时放弃实时处理 activity ID: %d\n", activity.ID)
	}
}

// runMainLoop 是处理器的主事件循环，响应两阶段停机
func (ap *activityProcessor) runMainLoop(gracefulHandle, forcefulHandle *lifecycle.Handle) {
	for {
		select {
		case <-gracefulHandle.Done():
			// 收到第一停机信号，进入“排空队列”模式
			fmt.Println("Activity Processor: 收到优雅停机信号，正在处理剩余任务...")
			ap.drainQueue(forcefulHandle)
			fmt.Println("Activity Processor: 优雅停机完成，主循环退出。")
			return
		default:
			ap.processSingleActivity(gracefulHandle)
		}
	}
}

// drainQueue 在收到优雅停机信号后，尽力处理完暂存区和channel中的剩余任务
func (ap *activityProcessor) drainQueue(forcefulHandle *lifecycle.Handle) {
	ap.checkAndRequeueMissedActivities(forcefulHandle.Ctx())
	select {
	case <-forcefulHandle.Done():
		fmt.Println("Activity Processor: 收到强制停机信号，排空队列被中断。")
		return
	default:
	}

	// 然后关闭channel，不再接收新任务
	ap.shutdownMutex.Lock()
	ap.isShutdown = true
	close(ap.activityChan)
	ap.shutdownMutex.Unlock()

	// 将channel中所有剩余的任务都转移到暂存区
	for activity := range ap.activityChan {
		ap.processMutex.Lock()
		heap.Push(ap.buffer, activity)
		ap.processMutex.Unlock()
	}

	// 循环处理暂存区，直到它为空或收到强制关闭信号
	for {
		select {
		case <-forcefulHandle.Done():
			fmt.Println("Activity Processor: 收到强制停机信号，排空队列被中断。")
			return
		default:
		}

		ap.processMutex.Lock()
		if ap.buffer.Len() == 0 {
			ap.processMutex.Unlock()
			return // 队列已空，完成
		}
		// 我们只处理连续的任务
		if (*ap.buffer)[0].ID == ap.lastProcessedActivityID+1 {
			activity := heap.Pop(ap.buffer).(Activity)
			ap.processMutex.Unlock()
			// 在排空模式下，简化重试逻辑，失败则放弃
			if err := ap.applyActivityToRepository(activity); err == nil {
				ap.processMutex.Lock()
				ap.lastProcessedActivityID = activity.ID
				ap.processMutex.Unlock()
			} else {
				fmt.Printf("排空队列时处理 activity ID %d 失败，已放弃: %v\n", activity.ID, err)
			}
		} else {
			ap.processMutex.Unlock()
			// 如果不连续，说明有任务丢失，排空结束
			return
		}
	}
}

func (ap *activityProcessor) processSingleActivity(gracefulHandle *lifecycle.Handle) {
	nextActivity, err := ap.getNextContinuousActivity(gracefulHandle)
	if err != nil {
		return
	}

	// 检查Redis健康状态
	if !database.IsRedisHealthy() {
		fmt.Println("Activity Processor: 检测到Redis不可用或正在重建，暂停处理...")
		gracefulHandle.Sleep(5 * time.Second) // 与健康检查器同步休眠
		// 将取出的任务放回暂存区，以便在Redis恢复后能被重新处理
		ap.processMutex.Lock()
		heap.Push(ap.buffer, nextActivity)
		ap.processMutex.Unlock()
		return
	}

	select {
	case <-gracefulHandle.Done():
		return
	default:
	}

	err = ap.applyActivityToRepositoryWithRetry(gracefulHandle, nextActivity)
	if err != nil {
		// 可能是Redis不健康了
		if err != context.Canceled && err != context.DeadlineExceeded {
			fmt.Printf("错误: 处理 activity ID %d 失败，已放回队列: %v\n", nextActivity.ID, err)
		}
		ap.processMutex.Lock()
		heap.Push(ap.buffer, nextActivity)
		ap.processMutex.Unlock()
		return
	}

	// 只有在成功处理后才更新ID
	ap.processMutex.Lock()
	ap.lastProcessedActivityID = nextActivity.ID
	ap.processMutex.Unlock()
}

// getNextContinuousActivity 是一个阻塞函数，它会一直等待直到获取到下一个连续的活动
func (ap *activityProcessor) getNextContinuousActivity(gracefulHandle *lifecycle.Handle) (Activity, error) {
	for {
		ap.processMutex.Lock()
		// 丢弃所有过时的堆顶元素
		for ap.buffer.Len() > 0 && (*ap.buffer)[0].ID <= ap.lastProcessedActivityID {
			heap.Pop(ap.buffer)
		}

		// 检查暂存区是否有我们需要的下一个活动
		if ap.buffer.Len() > 0 && (*ap.buffer)[0].ID == ap.lastProcessedActivityID+1 {
			activity := heap.Pop(ap.buffer).(Activity)
			ap.processMutex.Unlock()
			return activity, nil
		}
		ap.processMutex.Unlock()

		// 从主channel中等待
		select {
		case <-gracefulHandle.Done():
			return Activity{}, gracefulHandle.Err()
		case activity := <-ap.activityChan:
			ap.processMutex.Lock()
			if activity.ID <= ap.lastProcessedActivityID {
				ap.processMutex.Unlock()
				continue // 过时的活动，直接丢弃
			}
			if activity.ID == ap.lastProcessedActivityID+1 {
				ap.processMutex.Unlock()
				return activity, nil // 正好是下一个，直接处理
			}
			// 收到的活动太新，放入暂存区
			heap.Push(ap.buffer, activity)
			ap.processMutex.Unlock()
		}
	}
}

// applyActivityToRepositoryWithRetry 带有指数退避和健康检查的重试逻辑
func (ap *activityProcessor) applyActivityToRepositoryWithRetry(gracefulHandle *lifecycle.Handle, activity Activity) error {
	initialDelay := 8 * time.Millisecond
	maxDelay := 2 * time.Second

	delay := initialDelay
	for delay < maxDelay { // 短循环重试
		err := ap.applyActivityToRepository(activity)
		if err == nil {
			return nil
		}
		if err = gracefulHandle.Sleep(delay); err != nil {
			return err
		}
		delay *= 2
	}

	// 进入长循环告警模式
	for {
		// 每次重试前都检查健康状态
		if !database.IsRedisHealthy() {
			return errors.New("redis became unhealthy during retry")
		}

		err := ap.applyActivityToRepository(activity)
		if err == nil {
			return nil
		}

		fmt.Printf("告警: Redis持续写入失败，将在%v后重试 activity ID %d\n", maxDelay, activity.ID)
		if err := gracefulHandle.Sleep(maxDelay); err != nil {
			return err
		}
	}
}

// runPatroller 启动一个后台巡查员，定期检查数据库中是否有被遗漏的活动
func (ap *activityProcessor) runPatroller(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ap.checkAndRequeueMissedActivities(ctx)
		}
	}
}

func (ap *activityProcessor) checkAndRequeueMissedActivities(ctx context.Context) {
	if !database.IsRedisHealthy() {
		return // 如果Redis不健康，则跳过本次巡查
	}

	ap.processMutex.Lock()
	startID := ap.lastProcessedActivityID
	bufferMinID := uint(0)
	if ap.buffer.Len() > 0 {
		bufferMinID = (*ap.buffer)[0].ID
	}
	ap.processMutex.Unlock()

	select {
	case <-ctx.Done():
		return
	default:
	}

	var missedActivities []Activity
	query := database.DB.Where("id > ?", startID)
	if bufferMinID > 0 {
		query = query.Where("id < ?", bufferMinID)
	}
	query.Order("id asc").Limit(1000).Find(&missedActivities)

	if len(missedActivities) > 0 {
		ap.processMutex.Lock()
		currentID := ap.lastProcessedActivityID
		ap.processMutex.Unlock()
		if bufferMinID > 0 && currentID >= bufferMinID {
			return
		}

		fmt.Printf("巡查员: 发现 %d 条被遗漏的活动，正在提交处理...\n", len(missedActivities))
		for _, activity := range missedActivities {
			select {
			case <-ctx.Done():
				return
			default:
				if activity.ID > currentID {
					submitActivityToQueue(activity)
				}
			}
		}
	}
}

// applyActivityToRepository 将单个活动的计算结果原子地更新到Redis和内存仓库
func (ap *activityProcessor) applyActivityToRepository(activity Activity) error {
	// 1. 加写锁，保护对Redis和内存权重树的联合更新
	room.LockRepository()
	defer room.UnlockRepository()

	ap.processMutex.Lock()
	currentID := ap.lastProcessedActivityID
	ap.processMutex.Unlock()
	if currentID > activity.ID {
		return nil
	}

	// 2. 从Redis读取房间统计
	statsJSON, err := database.RDB.HGet(database.Ctx, room.StatsKey, activity.RoomID).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("无法从Redis获取房间统计数据: %w", err)
	}
	var roomStats room.RoomStats
	if err == nil {
		_ = json.Unmarshal([]byte(statsJSON), &roomStats)
	}
	roomStats.Completions++

	// 3. 进入profile临界区，更新用户统计
	profile.LockRepository()
	defer profile.UnlockRepository()

	userStats, err := getNewProfileStats(activity)
	if err != nil {
		return err
	}

	// 4. 原子地写回Redis
	pipe := database.RDB.TxPipeline()

	newRoomStatsJSON, _ := json.Marshal(roomStats)
	pipe.HSet(database.Ctx, room.StatsKey, activity.RoomID, newRoomStatsJSON)

	updateProfileStats(pipe, userStats)

	pipe.IncrBy(database.Ctx, metadata.RedisTotalActivitiesKey, 1)
	pipe.Set(database.Ctx, metadata.RedisLastProcessedActivityIDKey, activity.ID, 0)

	if _, err := pipe.Exec(database.Ctx); err != nil {
		return err
	}

	// 5. 更新内存权重树：完成次数越多的房间被推荐的权重越低
	if index, ok := room.GetRoomIndexByID(activity.RoomID); ok {
		room.UpdateWeightUnsafe(index, room.CalculateWeightForCompletions(float64(roomStats.Completions)))
	}
	return nil
}

// getNewProfileStats 从Redis获取用户和全局的进度统计并应用本次活动的增量
func getNewProfileStats(activity Activity) (map[string]profile.ProfileStats, error) {
	keysToFetch := []string{profile.TotalStatsKey, activity.UserUUID}
	statsData, err := database.RDB.HMGet(database.Ctx, profile.StatsKey, keysToFetch...).Result()
	if err != nil {
		return nil, fmt.Errorf("无法从Redis获取用户统计数据: %w", err)
	}

	statsMap := make(map[string]profile.ProfileStats)

	totalStats := profile.ProfileStats{}
	if statsData[0] != nil {
		_ = json.Unmarshal([]byte(statsData[0].(string)), &totalStats)
	}
	applyActivityToStats(&totalStats, activity)
	statsMap[profile.TotalStatsKey] = totalStats

	thisUserStats := profile.ProfileStats{}
	if statsData[1] != nil {
		_ = json.Unmarshal([]byte(statsData[1].(string)), &thisUserStats)
	}
	applyActivityToStats(&thisUserStats, activity)
	statsMap[activity.UserUUID] = thisUserStats

	return statsMap, nil
}

// applyActivityToStats 根据活动内容更新一份统计数据
func applyActivityToStats(stats *profile.ProfileStats, activity Activity) {
	stats.TotalXP += activity.XPAwarded
	stats.Activities++
	if activity.RoomMastered {
		stats.RoomsMastered++
	}
}

// updateProfileStats 在Redis事务中应用用户和全局进度统计的更新
func updateProfileStats(pipe redis.Pipeliner, userStats map[string]profile.ProfileStats) {
	statsMap := make(map[string]interface{})

	for key, stats := range userStats {
		// 处理用户个人统计
		if key != profile.TotalStatsKey {
			// 更新XP排行榜
			pipe.ZAdd(database.Ctx, profile.RankingKey, redis.Z{Score: float64(stats.TotalXP), Member: key})
			// 标记用户为“脏”，用于增量备份
			pipe.SAdd(database.Ctx, profile.DirtySetKey, key)
		}

		statsJSON, _ := json.Marshal(stats)
		statsMap[key] = statsJSON
	}

	pipe.HSet(database.Ctx, profile.StatsKey, statsMap)
}
