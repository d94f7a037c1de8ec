package profile

import (
	"sync"
)

// --- Redis 键名常量 ---

const (
	// StatsKey 是一个 Redis Hash 的键，用于存储每个用户的汇总统计信息。
	// Field: 用户的UUID 或 TotalStatsKey
	// Value: ProfileStats 结构体的JSON序列化字符串
	StatsKey = "profile:stats"

	// RankingKey 是一个 Redis Sorted Set 的键，用于存储用户的XP排行。
	// Score: 用户的累计XP
	// Member: 用户的UUID
	RankingKey = "profile:ranking"

	// DirtySetKey 是一个 Redis Set 的键，用于存储自上次快照以来，
	// 统计数据发生变化的用户UUID。用于增量备份。
	DirtySetKey = "profile:dirty"

	// ProcessingDirtySetKey 是一个 Redis Set 的键，
	// 只在备份逻辑的两阶段消费中被使用。
	ProcessingDirtySetKey = "profile:dirty:processing"
)

// --- 特殊键与常量 ---

const (
	// TotalStatsKey 是在 StatsKey (Hash) 中使用的一个特殊字段，
	// 用于存储全社区的汇总统计数据。
	// 区别于真实用户的UUID，不使用UUID格式。
	TotalStatsKey = "_total_"
)

// --- Redis 数据结构 ---

// ProfileStats 定义了在 Redis 的 profile:stats 哈希表中，
// 以JSON格式存储的用户汇总统计数据结构。
type ProfileStats struct {
	// TotalXP 是用户所有房间XP之和
	TotalXP int `json:"totalXp"`
	// RoomsMastered 是已达到满级的房间数量
	RoomsMastered int `json:"roomsMastered"`
	// Activities 是已处理的活动事件数
	Activities int `json:"activities"`
}

// --- 并发控制 ---

// repoMutex 是一个模块内部的、不导出的全局读写锁，
// 用于保护对本模块管理的Redis键的并发访问。
var repoMutex sync.RWMutex

// LockRepository 封装了对模块全局锁的写锁定操作。
func LockRepository() {
	repoMutex.Lock()
}

// UnlockRepository 封装了对模块全局锁的写解锁操作。
func UnlockRepository() {
	repoMutex.Unlock()
}

// RLockRepository 封装了对模块全局锁的读锁定操作。
func RLockRepository() {
	repoMutex.RLock()
}

// RUnlockRepository 封装了对模块全局锁的读解锁操作。
func RUnlockRepository() {
	repoMutex.RUnlock()
}
