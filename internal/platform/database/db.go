package database

import (
	"fmt"
	"log"
	"os"

	"github.com/phototheology/palace-backend/internal/platform/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB 根据配置初始化关系型数据库连接。
// SQLite是默认驱动；部署到托管环境时可以切换为Postgres。
func InitDB(cfg config.DatabaseConfig) {
	var err error

	// GORM日志配置
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 0,
			LogLevel:      logger.Silent, // 在生产环境中可以设为Silent
			Colorful:      true,
		},
	)

	gormCfg := &gorm.Config{
		Logger:         newLogger,
		TranslateError: true, // 统一不同驱动的错误，如 gorm.ErrDuplicatedKey
	}

	switch cfg.Driver {
	case "postgres":
		DB, err = gorm.Open(postgres.Open(cfg.Postgres.DSN), gormCfg)
	case "sqlite", "":
		DB, err = gorm.Open(sqlite.Open(cfg.Sqlite.Path), gormCfg)
	default:
		panic(fmt.Sprintf("未知的数据库驱动: %s", cfg.Driver))
	}

	if err != nil {
		fmt.Println("连接数据库失败", err)
		panic(err)
	}

	fmt.Println("数据库连接成功！")
}
