package activity

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phototheology/palace-backend/internal/platform/database"
	"gorm.io/gorm"
)

// --- 数据模型 ---

// UsedSessionID 定义了已消费的会话ID在数据库中的存储结构
type UsedSessionID struct {
	SessionID string `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time
}

// --- 常量与全局变量 ---

const (
	bloomFilterKey = "session_bloom_filter"
	cacheSetKey    = "session_cache_set"

	bloomFilterErrorRate = 0.001
	bloomFilterCapacity  = 1000000
)

var (
	replayMutex sync.Mutex
)

// --- 核心功能 ---

// InitializeReplayDefense 擦除所有旧数据，并创建一个全新的、干净的防重放系统。
func InitializeReplayDefense() error {
	fmt.Println("正在初始化防重放攻击系统...")

	// 1. 擦除旧的Redis数据
	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, bloomFilterKey)
	pipe.Del(database.Ctx, cacheSetKey)
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("擦除旧的Redis防重放数据失败: %w", err)
	}

	// 2. 擦除旧的SQLite数据
	if err := database.DB.AutoMigrate(&UsedSessionID{}); err != nil {
		return fmt.Errorf("无法迁移SessionID表: %w", err)
	}
	if err := database.DB.Exec("DELETE FROM used_session_ids").Error; err != nil {
		return fmt.Errorf("擦除旧的SQLite SessionID表失败: %w", err)
	}

	// 3. 创建一个新的布隆过滤器
	err := database.RDB.BFReserve(database.Ctx, bloomFilterKey, bloomFilterErrorRate, bloomFilterCapacity).Err()
	if err != nil {
		return fmt.Errorf("创建布隆过滤器失败: %w", err)
	}

	fmt.Println("防重放攻击系统初始化成功。")
	return nil
}

// CheckAndUseSessionID 检查一个会话ID是否是首次使用，如果是，则将其原子地记录到三层系统中。
// 返回值: isReplay bool, err error
func CheckAndUseSessionID(sessionID string) (bool, error) {
	// 1. 检查Redis健康状态
	if !database.IsRedisHealthy() {
		return false, errors.New("服务暂时不可用，无法验证活动")
	}

	// --- 只读检查 ---
	// Tier 1: 布隆过滤器
	existsInBF, err := database.RDB.BFExists(database.Ctx, bloomFilterKey, sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("查询布隆过滤器失败: %w", err)
	}

	if existsInBF {
		// Tier 2: Redis Set 缓存
		existsInSet, err := database.RDB.SIsMember(database.Ctx, cacheSetKey, sessionID).Result()
		if err != nil {
			return false, fmt.Errorf("查询Redis Set缓存失败: %w", err)
		}

		if existsInSet {
			return true, nil // Set缓存确认是重放
		}
	}

	// --- 写入逻辑 ---
	return insertNewSessionID(sessionID)
}

// insertNewSessionID 尝试将一个新的会话ID原子地写入三层系统
func insertNewSessionID(sessionID string) (bool, error) {
	replayMutex.Lock()
	defer replayMutex.Unlock()

	if !database.IsRedisHealthy() {
		return false, errors.New("服务暂时不可用，无法验证活动")
	}

	// 在持有锁之后，再次检查Set缓存，防止在等待锁的过程中ID已被其他请求插入
	isMember, _ := database.RDB.SIsMember(database.Ctx, cacheSetKey, sessionID).Result()
	if isMember {
		return true, nil
	}

	// 1. 开启SQLite事务
	tx := database.DB.Begin()
	if tx.Error != nil {
		return false, fmt.Errorf("无法开始SQLite事务: %w", tx.Error)
	}
	defer tx.Rollback() // 默认回滚，只有在最后才提交

	// 2. 在事务中插入SQLite
	newID := UsedSessionID{SessionID: sessionID}
	if err := tx.Create(&newID).Error; err != nil {
		if database.IsDuplicateKeyError(err) {
			// 这几乎是不可能的，说明Redis中的状态曾丢失
			// 尽管马上要触发重建了，我们可以信任SQLite
			return true, nil
		}
		return false, fmt.Errorf("写入SQLite失败: %w", err)
	}

	// 3. 开启Redis事务
	pipe := database.RDB.TxPipeline()
	pipe.BFAdd(database.Ctx, bloomFilterKey, sessionID)
	pipe.SAdd(database.Ctx, cacheSetKey, sessionID)
	_, err := pipe.Exec(database.Ctx)

	if err != nil {
		// Redis失败，SQLite事务将自动回滚
		return false, fmt.Errorf("写入Redis失败: %w", err)
	}

	const maxRetry = 3
	const delay = 50 * time.Millisecond
	// 4. Redis成功，尝试提交SQLite事务
	for i := 0; i < maxRetry; i++ { // 短间隔重试
		err := tx.Commit().Error
		if err == nil {
			return false, nil // 完美成功
		} else if !database.IsRetryableError(err) {
			break
		}
		time.Sleep(delay)
	}

	// 这是一个严重问题，SQLite提交失败但Redis已写入
	fmt.Printf("严重告警: SQLite提交失败但Redis已写入, SessionID: %s\n", sessionID)
	// 尽管这里出现内部不一致，应当以不存在的结果静默返回成功
	// 如果后续Redis不崩溃，则此SessionID已不可再次使用，如果后续Redis崩溃，则无法阻止此SessionID被重复使用
	return false, nil
}

// ReleaseSessionID 撤销一个已消费的会话ID，使同一凭据可以重新提交。
// 入账事务失败时调用，避免客户端重试时被误判为重放。
// 布隆过滤器不支持删除，但Set缓存和SQLite行清掉后，
// 重新提交会落到慢路径并成功插入。
func ReleaseSessionID(sessionID string) error {
	replayMutex.Lock()
	defer replayMutex.Unlock()

	// 先清Set缓存再删SQLite行：任何一步失败都让ID保持已消费，
	// 宁可多一次409，也不放开重放窗口
	if err := database.RDB.SRem(database.Ctx, cacheSetKey, sessionID).Err(); err != nil {
		return fmt.Errorf("无法从Set缓存移除SessionID: %w", err)
	}
	return releaseSessionRow(database.DB, sessionID)
}

func releaseSessionRow(db *gorm.DB, sessionID string) error {
	err := db.Where("session_id = ?", sessionID).Delete(&UsedSessionID{}).Error
	if err != nil {
		return fmt.Errorf("无法删除SessionID记录: %w", err)
	}
	return nil
}

// RecoverReplayDefense 从SQLite重建布隆过滤器和缓存
func RecoverReplayDefense() error {
	fmt.Println("正在从SQLite重建防重放攻击缓存...")

	replayMutex.Lock()
	defer replayMutex.Unlock()

	// 1. 擦除旧的Redis数据
	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, bloomFilterKey)
	pipe.Del(database.Ctx, cacheSetKey)
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("擦除旧的Redis防重放数据失败: %w", err)
	}

	// 2. 重新创建布隆过滤器
	err := database.RDB.BFReserve(database.Ctx, bloomFilterKey, bloomFilterErrorRate, bloomFilterCapacity).Err()
	if err != nil {
		return fmt.Errorf("创建布隆过滤器失败: %w", err)
	}

	// 3. 从SQLite分批读取所有已存在的ID并处理
	const batchSize = 10000

	sessionCount := 0
	var lastProcessedID string // 在字符串UUID上分页，按字母顺序
	var batch []string

	for i := 1; ; i++ {
		if err := database.DB.Model(&UsedSessionID{}).Where("session_id > ?", lastProcessedID).Order("session_id asc").Limit(batchSize).Pluck("session_id", &batch).Error; err != nil {
			return fmt.Errorf("分批从SQLite读取SessionID失败 (batch %d): %w", i, err)
		}

		if len(batch) == 0 {
			break
		}

		// 将string切片转换为interface{}切片
		interfaceBatch := make([]interface{}, len(batch))
		for j, id := range batch {
			interfaceBatch[j] = id
		}

		// 4. 将这一批次的ID写回Redis
		pipe := database.RDB.Pipeline()
		pipe.SAdd(database.Ctx, cacheSetKey, interfaceBatch...)
		pipe.BFMAdd(database.Ctx, bloomFilterKey, interfaceBatch...)
		if _, err := pipe.Exec(database.Ctx); err != nil {
			return fmt.Errorf("批量写回Redis失败 (batch %d): %w", i, err)
		}

		sessionCount += len(batch)
		if len(batch) < batchSize {
			break
		}

		lastProcessedID = batch[len(batch)-1]
		batch = batch[:0]
	}

	fmt.Printf("防重放攻击：成功从SQLite恢复了 %d 个SessionID到缓存。\n", sessionCount)
	return nil
}
