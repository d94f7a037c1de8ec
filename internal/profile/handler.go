package profile

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phototheology/palace-backend/internal/platform/config"
	"github.com/phototheology/palace-backend/internal/user"
)

type roomProgressResponse struct {
	RoomID     string     `json:"roomId"`
	XP         int        `json:"xp"`
	Level      int        `json:"level"`
	LevelTitle string     `json:"levelTitle"`
	Progress   float64    `json:"progress"`
	MasteredAt *time.Time `json:"masteredAt,omitempty"`
}

type overviewResponse struct {
	TotalXP       int                    `json:"totalXp"`
	RoomsMastered int                    `json:"roomsMastered"`
	GlobalTitle   string                 `json:"globalTitle"`
	Rooms         []roomProgressResponse `json:"rooms"`
}

type leaderboardEntryResponse struct {
	Rank          int64  `json:"rank"`
	UserUUID      string `json:"userUuid"`
	TotalXP       int    `json:"totalXp"`
	RoomsMastered int    `json:"roomsMastered"`
	GlobalTitle   string `json:"globalTitle"`
}

// newLeaderboardEntryResponse 把服务层DTO映射为API响应行。
// UserUUID是匿名身份，前端用它高亮当前用户自己的名次。
func newLeaderboardEntryResponse(e LeaderboardEntryDTO) leaderboardEntryResponse {
	return leaderboardEntryResponse{
		Rank:          e.Rank,
		UserUUID:      e.UserUUID,
		TotalXP:       e.TotalXP,
		RoomsMastered: e.RoomsMastered,
		GlobalTitle:   e.GlobalTitle,
	}
}

// GetProfile 返回当前用户的全部房间进度和全局称号
func GetProfile(c *gin.Context) {
	userUUID := c.GetString(user.UserIDKey)
	if userUUID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无法识别用户"})
		return
	}

	overview, err := GetProfileOverview(userUUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取进度失败"})
		return
	}

	resp := overviewResponse{
		TotalXP:       overview.TotalXP,
		RoomsMastered: overview.RoomsMastered,
		GlobalTitle:   overview.GlobalTitle,
		Rooms:         make([]roomProgressResponse, 0, len(overview.Rooms)),
	}
	for _, r := range overview.Rooms {
		resp.Rooms = append(resp.Rooms, roomProgressResponse{
			RoomID:     r.RoomID,
			XP:         r.XP,
			Level:      r.Level,
			LevelTitle: r.LevelTitle,
			Progress:   r.Progress,
			MasteredAt: r.MasteredAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// GetLeaderboardHandler 返回按总XP排序的排行榜
func GetLeaderboardHandler(c *gin.Context) {
	entries, err := GetLeaderboard(config.Cfg.Progression.LeaderboardSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取排行榜失败"})
		return
	}

	resp := make([]leaderboardEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, newLeaderboardEntryResponse(e))
	}
	c.JSON(http.StatusOK, resp)
}
