package profile

import (
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/phototheology/palace-backend/internal/platform/database"
)

func migrateDB() error {
	return database.DB.AutoMigrate(&MasteryProfile{})
}

// WarmupCache 从数据库重建Redis侧的排行榜和用户统计视图。
// 逐用户聚合XP与精通数，写入统计Hash和排行ZSet，并清空脏集合。
func WarmupCache() error {
	LockRepository()
	defer UnlockRepository()

	var profiles []MasteryProfile
	if err := database.DB.Find(&profiles).Error; err != nil {
		return fmt.Errorf("无法读取进度表: %w", err)
	}

	statsByUser := make(map[string]*ProfileStats)
	for _, p := range profiles {
		s, ok := statsByUser[p.UserUUID]
		if !ok {
			s = &ProfileStats{}
			statsByUser[p.UserUUID] = s
		}
		s.TotalXP += p.XP
		if p.MasteredAt != nil {
			s.RoomsMastered++
		}
	}

	// 活动计数来自事件日志表；首次启动时表可能尚未迁移，此时保持为零
	if database.DB.Migrator().HasTable("activities") {
		type activityCount struct {
			UserUUID string
			Count    int64
		}
		var counts []activityCount
		err := database.DB.Table("activities").
			Select("user_uuid, COUNT(*) as count").
			Group("user_uuid").
			Scan(&counts).Error
		if err != nil {
			return fmt.Errorf("无法聚合活动计数: %w", err)
		}
		for _, ac := range counts {
			s, ok := statsByUser[ac.UserUUID]
			if !ok {
				s = &ProfileStats{}
				statsByUser[ac.UserUUID] = s
			}
			s.Activities = int(ac.Count)
		}
	}

	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, StatsKey, RankingKey, DirtySetKey, ProcessingDirtySetKey)

	total := ProfileStats{}
	for uuid, s := range statsByUser {
		total.TotalXP += s.TotalXP
		total.RoomsMastered += s.RoomsMastered
		total.Activities += s.Activities

		statsJSON, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("无法序列化用户统计 (user: %s): %w", uuid, err)
		}
		pipe.HSet(database.Ctx, StatsKey, uuid, string(statsJSON))
		pipe.ZAdd(database.Ctx, RankingKey, redis.Z{Score: float64(s.TotalXP), Member: uuid})
	}

	totalJSON, err := json.Marshal(&total)
	if err != nil {
		return fmt.Errorf("无法序列化全局统计: %w", err)
	}
	pipe.HSet(database.Ctx, StatsKey, TotalStatsKey, string(totalJSON))

	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("无法重建进度缓存: %w", err)
	}

	fmt.Printf("进度缓存预热完成，共 %d 个用户\n", len(statsByUser))
	return nil
}

// PrimeCachedDB 准备 profile 模块：迁移数据库并预热缓存
func PrimeCachedDB() error {
	if err := migrateDB(); err != nil {
		return fmt.Errorf("无法迁移进度表: %w", err)
	}
	if err := WarmupCache(); err != nil {
		return fmt.Errorf("无法预热进度缓存: %w", err)
	}
	return nil
}
