package api

import (
	"github.com/gin-gonic/gin"
	"github.com/phototheology/palace-backend/internal/activity"
	"github.com/phototheology/palace-backend/internal/floor"
	"github.com/phototheology/palace-backend/internal/profile"
	"github.com/phototheology/palace-backend/internal/retention"
	"github.com/phototheology/palace-backend/internal/room"
	"github.com/phototheology/palace-backend/internal/streak"
	"github.com/phototheology/palace-backend/internal/user"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		// 宫殿相关的路由组 /api/palace
		palaceRoutes := api.Group("/palace")
		{
			// 房间目录与推荐
			palaceRoutes.GET("/rooms", room.GetRooms)
			palaceRoutes.GET("/rooms/recommended", user.EnsureUserCookieMiddleware(), user.LoadUserMiddleware(), room.GetRecommendedRoom)
			palaceRoutes.GET("/rooms/:id", room.GetRoom)

			// 学习会话签发
			palaceRoutes.GET("/rooms/:id/session", user.EnsureUserCookieMiddleware(), user.LoadUserMiddleware(), room.GetStudySession)

			// 活动入账
			palaceRoutes.POST("/activity", user.LoadUserMiddleware(), activity.SubmitActivity)

			// 楼层进度与顺序闸门
			palaceRoutes.GET("/floors", user.LoadUserMiddleware(), floor.GetFloors)
			palaceRoutes.POST("/floors/assessment", user.LoadUserMiddleware(), floor.SubmitAssessment)
			palaceRoutes.POST("/floors/teaching-demo", user.LoadUserMiddleware(), floor.SubmitTeachingDemo)
			palaceRoutes.POST("/floors/mastery", user.LoadUserMiddleware(), floor.ClaimMastery)

			// 保持测验阶梯
			palaceRoutes.GET("/rooms/:id/retention", user.LoadUserMiddleware(), retention.GetLadder)
			palaceRoutes.POST("/rooms/:id/retention", user.LoadUserMiddleware(), retention.SubmitTestHandler)
		}

		// 用户进度相关的路由
		api.GET("/profile", user.LoadUserMiddleware(), profile.GetProfile)
		api.GET("/streak", user.LoadUserMiddleware(), streak.GetStreakHandler)
		api.GET("/leaderboard", profile.GetLeaderboardHandler)
	}
}
