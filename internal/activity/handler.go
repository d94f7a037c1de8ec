package activity

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/phototheology/palace-backend/internal/profile"
	"github.com/phototheology/palace-backend/internal/streak"
	"github.com/phototheology/palace-backend/internal/user"
	"github.com/phototheology/palace-backend/pkg/token"
)

// ActivityRequestBody 定义了前端提交学习活动时，请求体的JSON结构
type ActivityRequestBody struct {
	SessionID string `json:"sessionId" binding:"required"`
	RoomID    string `json:"roomId" binding:"required"`
	Signature string `json:"signature" binding:"required"`

	DrillCompleted    bool `json:"drillCompleted"`
	ExerciseCompleted bool `json:"exerciseCompleted"`
	PerfectScore      bool `json:"perfectScore"`
	TimeBonus         bool `json:"timeBonus"`
	DrillScore        *int `json:"drillScore"`
}

type streakSummary struct {
	CurrentStreak   int  `json:"currentStreak"`
	LongestStreak   int  `json:"longestStreak"`
	StreakContinued bool `json:"streakContinued"`
}

// SubmitActivity 处理前端提交的学习活动
func SubmitActivity(c *gin.Context) {
	if !database.IsRedisHealthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "服务暂时不可用，请稍后重试"})
		return
	}

	var body ActivityRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	if body.DrillScore != nil && (*body.DrillScore < 0 || *body.DrillScore > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "操练得分越界"})
		return
	}

	userUUID := c.GetString(user.UserIDKey)
	if userUUID == "" || !user.IsValidUUID(userUUID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无法识别用户"})
		return
	}

	// 1. 验证会话签名，防止伪造的提交
	payload := token.SessionPayload{SessionID: body.SessionID, RoomID: body.RoomID}
	if !token.ValidateSessionSignature(payload, body.Signature) {
		c.JSON(http.StatusForbidden, gin.H{"error": "会话签名无效"})
		return
	}

	// 2. 防重放：每个会话ID只能入账一次
	isReplay, err := CheckAndUseSessionID(body.SessionID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "服务暂时不可用，请稍后重试"})
		return
	}
	if isReplay {
		c.JSON(http.StatusConflict, gin.H{"error": "该学习会话已提交过"})
		return
	}

	// 3. 在事务中入账
	effort := profile.ActivityEffort{
		DrillCompleted:    body.DrillCompleted,
		ExerciseCompleted: body.ExerciseCompleted,
		PerfectScore:      body.PerfectScore,
		TimeBonus:         body.TimeBonus,
		DrillScore:        body.DrillScore,
	}
	result, err := RecordActivity(userUUID, body.RoomID, body.SessionID, effort, time.Now())
	if err != nil {
		// 入账失败时退还会话凭据，客户端重试不会被误判为重放
		if rerr := ReleaseSessionID(body.SessionID); rerr != nil {
			fmt.Printf("警告: 退还SessionID失败: %v\n", rerr)
		}
		if errors.Is(err, ErrUnknownRoom) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "未知的房间"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "处理活动失败: " + err.Error()})
		return
	}

	resp := gin.H{
		"xpAwarded":    result.XPAwarded,
		"roomXp":       result.RoomXP,
		"roomLevel":    result.RoomLevel,
		"roomTitle":    result.RoomTitle,
		"roomMastered": result.RoomMastered,
	}
	if result.StreakResult != nil {
		tr := result.StreakResult.Transition
		resp["streak"] = streakSummary{
			CurrentStreak:   result.StreakResult.CurrentStreak,
			LongestStreak:   result.StreakResult.LongestStreak,
			StreakContinued: tr == streak.TransitionStarted || tr == streak.TransitionExtended,
		}
	}
	c.JSON(http.StatusOK, resp)
}
