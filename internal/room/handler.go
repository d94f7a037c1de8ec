package room

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phototheology/palace-backend/internal/platform/database"
)

// --- API响应模型 ---

type RoomResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Floor       int    `json:"floor"`
	Completions int    `json:"completions"`
}

type StudySessionResponse struct {
	Room      RoomResponse `json:"room"`
	SessionID string       `json:"sessionId"`
	Signature string       `json:"signature"`
}

// --- 数据格式化辅助函数 ---

func formatRoom(dto RoomDTO) RoomResponse {
	return RoomResponse{
		ID:          dto.ID,
		Name:        dto.Info.Name,
		Description: dto.Info.Description,
		Floor:       dto.Info.Floor,
		Completions: dto.Stats.Completions,
	}
}

// --- 控制器函数 ---

// GetRooms 获取完整的房间目录
func GetRooms(c *gin.Context) {
	rooms, err := GetAllRooms()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取房间目录失败"})
		return
	}

	responses := make([]RoomResponse, 0, len(rooms))
	for _, dto := range rooms {
		responses = append(responses, formatRoom(dto))
	}
	c.JSON(http.StatusOK, responses)
}

// GetRoom 根据ID获取单个房间的信息
func GetRoom(c *gin.Context) {
	roomID := c.Param("id")
	dto, err := GetRoomByID(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "数据库查询失败"})
		return
	}
	if dto == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("找不到ID为 %s 的房间", roomID)})
		return
	}
	c.JSON(http.StatusOK, formatRoom(*dto))
}

// GetRecommendedRoom 按冷门优先策略推荐一个练习房间
func GetRecommendedRoom(c *gin.Context) {
	if !database.IsRedisHealthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "服务暂时不可用，请稍后重试"})
		return
	}

	exclude := c.Query("exclude")
	dto, err := RecommendRoom(exclude)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "推荐房间时发生内部错误"})
		return
	}
	c.JSON(http.StatusOK, formatRoom(*dto))
}

// GetStudySession 为一个房间签发带签名的学习会话
func GetStudySession(c *gin.Context) {
	if !database.IsRedisHealthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "服务暂时不可用，请稍后重试"})
		return
	}

	roomID := c.Param("id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "必须提供房间ID"})
		return
	}

	dto, err := CreateStudySession(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, StudySessionResponse{
		Room:      formatRoom(dto.Room),
		SessionID: dto.Payload.SessionID,
		Signature: dto.Signature,
	})
}
