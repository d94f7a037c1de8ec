package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Progression ProgressionConfig `mapstructure:"progression"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	// Driver 选择关系型存储的驱动，"sqlite" 或 "postgres"
	Driver   string         `mapstructure:"driver"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Sqlite   SqliteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SqliteConfig 定义了SQLite的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig 定义了Postgres的配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ProgressionConfig 定义了进度引擎的业务配置
type ProgressionConfig struct {
	// CriticalGateFloor 是需要额外通过“教学演示”才能授予精通的关键层
	CriticalGateFloor int `mapstructure:"criticalGateFloor"`
	// LeaderboardSize 是排行榜API默认返回的用户数量
	LeaderboardSize int `mapstructure:"leaderboardSize"`
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. 设置配置文件名和类型
	v.SetConfigName("config") // 文件名 (不带扩展名)
	v.SetConfigType("yaml")   // 文件类型

	// 2. 添加配置文件搜索路径
	v.AddConfigPath("./config") // `config/config.yaml`
	v.AddConfigPath(".")        // `./config.yaml` (如果在根目录)

	// 3. 设置默认值，保证裸机启动时也能运行
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite.path", "palace.db")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("progression.criticalGateFloor", 7)
	v.SetDefault("progression.leaderboardSize", 50)

	// 4. 设置环境变量支持
	// 允许通过环境变量覆盖配置，例如 DATABASE_DRIVER=postgres
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 5. 读取配置文件（缺失配置文件不是错误，使用默认值）
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// 6. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 7. 校验关键配置
	if cfg.Progression.CriticalGateFloor < 1 || cfg.Progression.CriticalGateFloor > 8 {
		return nil, fmt.Errorf("progression.criticalGateFloor 必须在 [1,8] 内，当前为 %d", cfg.Progression.CriticalGateFloor)
	}

	// 8. 将加载的配置赋值给全局变量
	Cfg = &cfg

	return Cfg, nil
}
