package room

import (
	"encoding/json"
	"fmt"

	"github.com/phototheology/palace-backend/internal/platform/database"
	"gorm.io/gorm/clause"
)

// PrimeCachedDB 负责初始化room模块的数据库和内存仓库
func PrimeCachedDB() error {
	// 1. 迁移数据库表结构并写入目录种子
	if err := migrateDB(); err != nil {
		return err
	}
	// 2. 从数据库加载静态数据到内存仓库
	if err := InitializeRepository(); err != nil {
		return err
	}
	// 3. 将动态数据预热到Redis，并初始化权重树
	if err := WarmupCache(); err != nil {
		return err
	}
	return nil
}

// migrateDB 负责自动迁移数据库表结构，并在首次启动时写入静态目录
func migrateDB() error {
	if err := database.DB.AutoMigrate(&Room{}); err != nil {
		return fmt.Errorf("无法迁移room表: %w", err)
	}

	// 目录种子：冲突时忽略，已有记录（含其动态统计）不被覆盖
	if err := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&palaceCatalog).Error; err != nil {
		return fmt.Errorf("无法写入房间目录种子: %w", err)
	}

	fmt.Println("Room数据库表迁移成功。")
	return nil
}

// WarmupCache 从数据库加载动态数据到Redis，并根据这些数据重建内存中的权重树。
// 注意：此函数不包含锁，调用方需要确保在安全的时机（如单线程启动或重建大范围锁下）调用。
func WarmupCache() error {
	var roomsInDB []Room
	if err := database.DB.Find(&roomsInDB).Error; err != nil {
		return fmt.Errorf("无法从数据库读取房间数据: %w", err)
	}

	pipe := database.RDB.Pipeline()
	// 静态与动态键一起重建
	pipe.Del(database.Ctx, InfoKey, StatsKey)

	// 准备用于重建权重树的初始权重
	initialWeights := make([]float64, GetRoomCount())

	for _, r := range roomsInDB {
		info := RoomInfo{
			Name:        r.Name,
			Description: r.Description,
			Floor:       r.Floor,
		}
		infoJSON, _ := json.Marshal(info)
		pipe.HSet(database.Ctx, InfoKey, r.RoomID, infoJSON)

		stats := RoomStats{Completions: r.Completions}
		statsJSON, _ := json.Marshal(stats)
		pipe.HSet(database.Ctx, StatsKey, r.RoomID, statsJSON)

		// 冷门优先算法的初始权重
		index, ok := GetRoomIndexByID(r.RoomID)
		if ok {
			initialWeights[index] = CalculateWeightForCompletions(float64(r.Completions))
		}
	}

	_, err := pipe.Exec(database.Ctx)
	if err != nil {
		return fmt.Errorf("预热房间数据到Redis失败: %w", err)
	}

	// 在预热Redis后，使用正确的初始权重重建内存中的线段树
	if err := RebuildWeightsUnsafe(initialWeights); err != nil {
		return fmt.Errorf("无法使用初始权重重建线段树: %w", err)
	}

	fmt.Printf("成功预热 %d 个房间的数据到Redis，并重建了权重树。\n", len(roomsInDB))
	return nil
}
