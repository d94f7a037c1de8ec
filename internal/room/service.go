package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/phototheology/palace-backend/pkg/token"
	"github.com/redis/go-redis/v9"
)

// --- Service-Level Data Transfer Objects (DTOs) ---

// RoomDTO 包含了房间列表API所需的所有数据
type RoomDTO struct {
	ID    string
	Info  RoomInfo
	Stats RoomStats
}

// SessionDTO 是 CreateStudySession 返回给控制器的最终数据包
type SessionDTO struct {
	Room      RoomDTO
	Payload   token.SessionPayload
	Signature string
}

// --- Service Functions ---

// GetAllRooms 从Redis中获取完整的房间目录（含动态统计）
func GetAllRooms() ([]RoomDTO, error) {
	count := GetRoomCount()
	result := make([]RoomDTO, 0, count)
	if count == 0 {
		return result, nil
	}

	ids := make([]string, count)
	for i := 0; i < count; i++ {
		ids[i], _ = GetRoomIDByIndex(i)
	}

	// 使用Pipeline一次性获取所有房间的动态数据
	statsJSONs, err := database.RDB.HMGet(database.Ctx, StatsKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("无法从Redis获取房间统计数据: %w", err)
	}

	for i, id := range ids {
		info, _ := GetRoomInfoByIndex(i)
		var stats RoomStats
		if statsJSONs[i] != nil {
			_ = json.Unmarshal([]byte(statsJSONs[i].(string)), &stats)
		}
		result = append(result, RoomDTO{ID: id, Info: info, Stats: stats})
	}
	return result, nil
}

// GetRoomByID 获取单个房间的信息
func GetRoomByID(roomID string) (*RoomDTO, error) {
	info, ok := GetRoomInfoByID(roomID)
	if !ok {
		return nil, nil // 未找到
	}

	statsJSON, err := database.RDB.HGet(database.Ctx, StatsKey, roomID).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("无法从Redis获取房间 %s 的统计数据: %w", roomID, err)
	}
	var stats RoomStats
	if err == nil {
		_ = json.Unmarshal([]byte(statsJSON), &stats)
	}

	return &RoomDTO{ID: roomID, Info: info, Stats: stats}, nil
}

// RecommendRoom 按“冷门优先”权重随机推荐一个房间。
// 可选地将上一次推荐的房间排除在外。
func RecommendRoom(excludeID string) (*RoomDTO, error) {
	RLockRepository()
	index, err := func() (int, error) {
		defer RUnlockRepository()

		total := GetTotalWeightUnsafe()
		if total <= 0 {
			return -1, errors.New("房间权重未初始化")
		}

		excludeIndex := -1
		excludeWeight := 0.0
		if excludeID != "" {
			if i, ok := GetRoomIndexByID(excludeID); ok {
				w, err := GetWeightUnsafe(i)
				if err == nil {
					excludeIndex, excludeWeight = i, w
				}
			}
		}

		// 临时将被排除房间的权重清零，抽样后恢复。
		// 仓库写锁由调用方的读锁升级不可行，这里改用读锁+重抽样的方式：
		// 抽到被排除的房间时重抽一次即可，两个房间权重相近时期望抽样次数约为2。
		for attempt := 0; attempt < 8; attempt++ {
			r := rand.Float64() * total
			i, err := FindByWeightUnsafe(r)
			if err != nil {
				return -1, err
			}
			if i != excludeIndex || excludeWeight == total {
				return i, nil
			}
		}
		// 多次重抽仍命中排除项（极端权重分布），放弃排除语义
		r := rand.Float64() * total
		return FindByWeightUnsafe(r)
	}()
	if err != nil {
		return nil, fmt.Errorf("加权抽样失败: %w", err)
	}

	id, _ := GetRoomIDByIndex(index)
	return GetRoomByID(id)
}

// CreateStudySession 为指定房间签发一个带签名的学习会话。
// 活动提交时必须原样带回payload和签名。
func CreateStudySession(roomID string) (*SessionDTO, error) {
	dto, err := GetRoomByID(roomID)
	if err != nil {
		return nil, err
	}
	if dto == nil {
		return nil, fmt.Errorf("找不到房间: %s", roomID)
	}

	sessionID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("无法生成SessionID: %w", err)
	}
	payload := token.SessionPayload{
		SessionID: sessionID.String(),
		RoomID:    roomID,
	}
	signature, err := token.GenerateSessionSignature(payload)
	if err != nil {
		return nil, fmt.Errorf("无法生成会话签名: %w", err)
	}

	return &SessionDTO{
		Room:      *dto,
		Payload:   payload,
		Signature: signature,
	}, nil
}
