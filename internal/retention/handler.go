package retention

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phototheology/palace-backend/internal/user"
)

type rungResponse struct {
	IntervalDays int       `json:"intervalDays"`
	UnlocksAt    time.Time `json:"unlocksAt"`
	Unlocked     bool      `json:"unlocked"`
	Passed       bool      `json:"passed"`
	Attempts     int       `json:"attempts"`
}

type ladderResponse struct {
	MasteredAt time.Time      `json:"masteredAt"`
	Rungs      []rungResponse `json:"rungs"`
	TrueMaster bool           `json:"trueMaster"`
}

type submitTestRequest struct {
	IntervalDays int `json:"intervalDays" binding:"required"`
	Score        int `json:"score" binding:"min=0,max=100"`
}

// GetLadder 返回当前用户在指定房间的保持测验阶梯
func GetLadder(c *gin.Context) {
	userUUID := c.GetString(user.UserIDKey)
	if userUUID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无法识别用户"})
		return
	}
	roomID := c.Param("id")

	status, err := GetLadderStatus(userUUID, roomID, time.Now())
	if errors.Is(err, ErrRoomNotMastered) {
		c.JSON(http.StatusConflict, gin.H{"error": "房间尚未精通"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取阶梯状态失败"})
		return
	}

	resp := ladderResponse{
		MasteredAt: status.MasteredAt,
		TrueMaster: status.TrueMaster,
		Rungs:      make([]rungResponse, 0, len(status.Rungs)),
	}
	for _, r := range status.Rungs {
		resp.Rungs = append(resp.Rungs, rungResponse{
			IntervalDays: r.IntervalDays,
			UnlocksAt:    r.UnlocksAt,
			Unlocked:     r.Unlocked,
			Passed:       r.Passed,
			Attempts:     r.Attempts,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitTestHandler 提交一次保持测验成绩
func SubmitTestHandler(c *gin.Context) {
	userUUID := c.GetString(user.UserIDKey)
	if userUUID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无法识别用户"})
		return
	}
	roomID := c.Param("id")

	var req submitTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	result, err := SubmitTest(userUUID, roomID, req.IntervalDays, req.Score, time.Now())
	switch {
	case errors.Is(err, ErrInvalidInterval):
		c.JSON(http.StatusBadRequest, gin.H{"error": "间隔天数无效"})
	case errors.Is(err, ErrRoomNotMastered):
		c.JSON(http.StatusConflict, gin.H{"error": "房间尚未精通"})
	case errors.Is(err, ErrIntervalLocked):
		c.JSON(http.StatusConflict, gin.H{"error": "该档位尚未解锁"})
	case errors.Is(err, ErrIntervalAlreadyPassed):
		c.JSON(http.StatusConflict, gin.H{"error": "该档位已通过"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "提交测验失败"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"passed":     result.Passed,
			"score":      result.Score,
			"trueMaster": result.TrueMaster,
		})
	}
}
