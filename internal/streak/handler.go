package streak

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phototheology/palace-backend/internal/user"
)

type streakResponse struct {
	CurrentStreak   int        `json:"currentStreak"`
	LongestStreak   int        `json:"longestStreak"`
	TotalActiveDays int        `json:"totalActiveDays"`
	Alive           bool       `json:"alive"`
	LastActivityAt  *time.Time `json:"lastActivityAt,omitempty"`
}

// GetStreakHandler 返回当前用户的连击状态
func GetStreakHandler(c *gin.Context) {
	userUUID := c.GetString(user.UserIDKey)
	if userUUID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无法识别用户"})
		return
	}

	record, err := GetStreak(userUUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取连击状态失败"})
		return
	}

	resp := streakResponse{
		CurrentStreak:   record.CurrentStreak,
		LongestStreak:   record.LongestStreak,
		TotalActiveDays: record.TotalActiveDays,
		Alive:           IsStreakAlive(record, time.Now()),
	}
	if record.TotalActiveDays > 0 {
		resp.LastActivityAt = &record.LastActivityDate
	}
	c.JSON(http.StatusOK, resp)
}
