package floor

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phototheology/palace-backend/internal/user"
)

type floorStateResponse struct {
	FloorNumber        int        `json:"floorNumber"`
	CurriculumPercent  float64    `json:"curriculumPercent"`
	AssessmentPassed   bool       `json:"assessmentPassed"`
	TeachingDemoPassed bool       `json:"teachingDemoPassed"`
	MasteryAwardedAt   *time.Time `json:"masteryAwardedAt,omitempty"`
	GateOpen           bool       `json:"gateOpen"`
}

type assessmentRequest struct {
	FloorNumber int `json:"floorNumber" binding:"required"`
	Score       int `json:"score" binding:"min=0,max=100"`
}

type teachingDemoRequest struct {
	FloorNumber int  `json:"floorNumber" binding:"required"`
	Passed      bool `json:"passed"`
}

type masteryRequest struct {
	FloorNumber int `json:"floorNumber" binding:"required"`
}

// GetFloors 返回当前用户的全部楼层状态
func GetFloors(c *gin.Context) {
	userUUID := c.GetString(user.UserIDKey)
	if userUUID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无法识别用户"})
		return
	}

	states, err := GetFloorStates(userUUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取楼层状态失败"})
		return
	}

	resp := make([]floorStateResponse, 0, len(states))
	for _, s := range states {
		resp = append(resp, floorStateResponse{
			FloorNumber:        s.FloorNumber,
			CurriculumPercent:  s.CurriculumPercent,
			AssessmentPassed:   s.AssessmentPassed,
			TeachingDemoPassed: s.TeachingDemoPassed,
			MasteryAwardedAt:   s.MasteryAwardedAt,
			GateOpen:           s.GateOpen,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitAssessment 提交一次楼层评估成绩
func SubmitAssessment(c *gin.Context) {
	userUUID := c.GetString(user.UserIDKey)
	if userUUID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无法识别用户"})
		return
	}

	var req assessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	passed, err := RecordAssessment(userUUID, req.FloorNumber, req.Score)
	if errors.Is(err, ErrInvalidFloor) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "层号无效"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "记录评估失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"passed": passed})
}

// SubmitTeachingDemo 提交关键闸门层的试讲结果
func SubmitTeachingDemo(c *gin.Context) {
	userUUID := c.GetString(user.UserIDKey)
	if userUUID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无法识别用户"})
		return
	}

	var req teachingDemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	if err := RecordTeachingDemo(userUUID, req.FloorNumber, req.Passed); err != nil {
		if errors.Is(err, ErrInvalidFloor) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "层号无效"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

// ClaimMastery 申请授予楼层精通
func ClaimMastery(c *gin.Context) {
	userUUID := c.GetString(user.UserIDKey)
	if userUUID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无法识别用户"})
		return
	}

	var req masteryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	outcome, err := AwardMastery(userUUID, req.FloorNumber, time.Now())
	switch {
	case errors.Is(err, ErrInvalidFloor):
		c.JSON(http.StatusBadRequest, gin.H{"error": "层号无效"})
	case errors.Is(err, ErrGateClosed):
		c.JSON(http.StatusConflict, gin.H{
			"error":             "前置楼层尚未精通",
			"nextRequiredFloor": outcome.Gate.NextRequiredFloor,
		})
	case errors.Is(err, ErrRequirementsNotMet):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "楼层精通条件不满足",
			"missing": outcome.Missing,
		})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "授予精通失败"})
	default:
		c.JSON(http.StatusOK, gin.H{"awarded": true})
	}
}
