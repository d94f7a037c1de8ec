package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/phototheology/palace-backend/api"
	"github.com/phototheology/palace-backend/internal/activity"
	"github.com/phototheology/palace-backend/internal/platform/backup"
	"github.com/phototheology/palace-backend/internal/platform/config"
	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/phototheology/palace-backend/internal/platform/health"
	"github.com/phototheology/palace-backend/internal/platform/shutdown"
	"github.com/phototheology/palace-backend/internal/platform/startup"
	"github.com/phototheology/palace-backend/pkg/lifecycle"
	"github.com/phototheology/palace-backend/pkg/token"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}

	token.GenerateSecretKey()
	database.InitDB(cfg.Database)
	database.InitRedis(cfg.Database.Redis)

	// 1. 阻塞式获取初始Run ID
	health.InitializeRunID()

	// 2. 执行应用首次启动初始化流程
	if err := startup.InitializeApplication(); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 3. 阻塞式执行一次启动后健康检查
	fmt.Println("正在执行启动后健康检查...")
	health.PerformCheck()

	// 4. 异步启动后台的持续健康检查器
	go health.StartRedisHealthCheck()

	// 5. 创建两阶段停机的生命周期管理器，并启动后台服务
	gracefulMgr := lifecycle.NewManager()
	forcefulMgr := lifecycle.NewManager()

	processorGraceful, err := gracefulMgr.NewServiceHandle("activity-processor")
	if err != nil {
		panic(fmt.Sprintf("注册Activity Processor失败: %v", err))
	}
	processorForceful, err := forcefulMgr.NewServiceHandle("activity-processor")
	if err != nil {
		panic(fmt.Sprintf("注册Activity Processor失败: %v", err))
	}
	if err := activity.StartActivityProcessor(processorGraceful, processorForceful); err != nil {
		panic(fmt.Sprintf("启动Activity Processor失败: %v", err))
	}

	backupHandle, err := gracefulMgr.NewServiceHandle("backup-scheduler")
	if err != nil {
		panic(fmt.Sprintf("注册备份调度器失败: %v", err))
	}
	go backup.StartBackupScheduler(backupHandle)

	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("Failed to start server: " + err.Error())
		}
	}()

	// 6. 阻塞等待停机信号，编排两阶段优雅停机
	coordinator := shutdown.NewCoordinator(gracefulMgr, forcefulMgr)
	coordinator.ListenForSignalsAndShutdown(server)
}
