package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phototheology/palace-backend/internal/platform/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Service-Level DTOs ---

// RoomProgressDTO 描述用户在单个房间内的进度
type RoomProgressDTO struct {
	RoomID     string
	XP         int
	Level      int
	LevelTitle string
	Progress   float64
	MasteredAt *time.Time
}

// OverviewDTO 是 GetProfileOverview 返回的汇总数据包
type OverviewDTO struct {
	UserUUID      string
	TotalXP       int
	RoomsMastered int
	GlobalTitle   string
	Rooms         []RoomProgressDTO
}

// LeaderboardEntryDTO 是排行榜中的一行
type LeaderboardEntryDTO struct {
	UserUUID      string
	TotalXP       int
	RoomsMastered int
	GlobalTitle   string
	Rank          int64
}

// ApplyResultDTO 描述一次XP入账后的房间状态
type ApplyResultDTO struct {
	XP          int
	Level       int
	MasteredNow bool
}

// --- 写路径（事务内） ---

// ApplyXPInTx 在调用方的事务中，将一次活动的XP增量入账到(用户,房间)的进度行。
// 行不存在时懒创建；XP达到满级门槛时设置MasteredAt，且只设置一次。
// delta为负是调用方的契约违规，直接拒绝。
func ApplyXPInTx(tx *gorm.DB, userUUID, roomID string, delta int, now time.Time) (*ApplyResultDTO, error) {
	if delta < 0 {
		return nil, fmt.Errorf("非法的XP增量: %d", delta)
	}

	var prof MasteryProfile
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_uuid = ? AND room_id = ?", userUUID, roomID).
		First(&prof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prof = MasteryProfile{UserUUID: userUUID, RoomID: roomID}
	} else if err != nil {
		return nil, fmt.Errorf("无法读取进度行: %w", err)
	}

	prof.XP += delta

	masteredNow := false
	if prof.MasteredAt == nil && prof.XP >= MasteryThreshold() {
		t := now
		prof.MasteredAt = &t
		masteredNow = true
	}

	if err := tx.Save(&prof).Error; err != nil {
		return nil, fmt.Errorf("无法保存进度行: %w", err)
	}

	return &ApplyResultDTO{
		XP:          prof.XP,
		Level:       ResolveLevel(prof.XP),
		MasteredNow: masteredNow,
	}, nil
}

// GetMasteredAt 返回用户在指定房间的精通时间戳，未精通时为nil。
// retention模块用它作为保持测验阶梯的计时起点。
func GetMasteredAt(userUUID, roomID string) (*time.Time, error) {
	var prof MasteryProfile
	err := database.DB.Where("user_uuid = ? AND room_id = ?", userUUID, roomID).First(&prof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取进度行: %w", err)
	}
	return prof.MasteredAt, nil
}

// CountMasteredRooms 统计用户已精通的房间数，驱动全局称号轨道。
func CountMasteredRooms(db *gorm.DB, userUUID string) (int, error) {
	var count int64
	err := db.Model(&MasteryProfile{}).
		Where("user_uuid = ? AND mastered_at IS NOT NULL", userUUID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("无法统计精通房间数: %w", err)
	}
	return int(count), nil
}

// --- 读路径 ---

// GetProfileOverview 汇总用户的全部进度：逐房间等级和全局称号。
// 汇总统计优先读Redis缓存；缓存缺失时退回数据库聚合。
func GetProfileOverview(userUUID string) (*OverviewDTO, error) {
	var profiles []MasteryProfile
	if err := database.DB.Where("user_uuid = ?", userUUID).Order("room_id asc").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("无法读取用户进度: %w", err)
	}

	overview := &OverviewDTO{
		UserUUID: userUUID,
		Rooms:    make([]RoomProgressDTO, 0, len(profiles)),
	}

	for _, p := range profiles {
		level := ResolveLevel(p.XP)
		overview.TotalXP += p.XP
		if p.MasteredAt != nil {
			overview.RoomsMastered++
		}
		overview.Rooms = append(overview.Rooms, RoomProgressDTO{
			RoomID:     p.RoomID,
			XP:         p.XP,
			Level:      level,
			LevelTitle: LevelTitle(level),
			Progress:   LevelProgress(p.XP),
			MasteredAt: p.MasteredAt,
		})
	}

	overview.GlobalTitle = ResolveGlobalTitle(overview.RoomsMastered)
	return overview, nil
}

// GetLeaderboard 从Redis排行榜中读取前n名用户及其统计。
func GetLeaderboard(n int) ([]LeaderboardEntryDTO, error) {
	if n <= 0 {
		return []LeaderboardEntryDTO{}, nil
	}

	userIDs, err := database.RDB.ZRevRange(database.Ctx, RankingKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("无法从Redis获取排行榜: %w", err)
	}
	if len(userIDs) == 0 {
		return []LeaderboardEntryDTO{}, nil
	}

	statsJSONs, err := database.RDB.HMGet(database.Ctx, StatsKey, userIDs...).Result()
	if err != nil {
		return nil, fmt.Errorf("无法从Redis获取用户统计: %w", err)
	}

	entries := make([]LeaderboardEntryDTO, 0, len(userIDs))
	for i, id := range userIDs {
		var stats ProfileStats
		if statsJSONs[i] != nil {
			_ = json.Unmarshal([]byte(statsJSONs[i].(string)), &stats)
		}
		entries = append(entries, LeaderboardEntryDTO{
			UserUUID:      id,
			TotalXP:       stats.TotalXP,
			RoomsMastered: stats.RoomsMastered,
			GlobalTitle:   ResolveGlobalTitle(stats.RoomsMastered),
			Rank:          int64(i + 1),
		})
	}
	return entries, nil
}
