package config

import (
	"log"
	"os"
	"time"

	"GuardianLink/pkg/kv"
	"GuardianLink/pkg/llm"
	"GuardianLink/pkg/logger"
	"GuardianLink/pkg/util"
	"GuardianLink/pkg/websocket"
)

// config/config.go
type Config struct {
	Addr          string `env:"ADDR"`
	Mode          string `env:"MODE"`
	APIPrefix     string `env:"API_PREFIX"`
	SessionSecret string `env:"SESSION_SECRET"`
	Language      string `env:"LANGUAGE"`
	Log           logger.LogConfig
	Store         kv.Config
	LLM           llm.Config
	SOS           SOSConfig
	Search        SearchConfig
	WebSocket     *websocket.Config

	BackupEnabled  bool   `env:"BACKUP_ENABLED"`
	BackupPath     string `env:"BACKUP_PATH"`
	BackupSchedule string `env:"BACKUP_SCHEDULE"`

	// ulule/limiter 格式，例如 "10-M"
	RateLimitReply string `env:"RATE_LIMIT_REPLY"`
	RateLimitAPI   string `env:"RATE_LIMIT_API"`
}

// SOSConfig 求救相关的时间参数
type SOSConfig struct {
	Interval      time.Duration `env:"SOS_INTERVAL"`
	DisplayCap    int           `env:"SOS_DISPLAY_CAP"`
	AlertDelay    time.Duration `env:"SOS_ALERT_DELAY"`
	DisguiseDelay time.Duration `env:"SOS_DISGUISE_DELAY"`
}

type SearchConfig struct {
	Enabled bool   `env:"SEARCH_ENABLED"`
	Path    string `env:"SEARCH_PATH"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	err := util.LoadEnv(env)
	if err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = FromEnv()
	return nil
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() *Config {
	displayCap := 3
	if raw := util.GetEnv("SOS_DISPLAY_CAP"); raw != "" {
		displayCap = int(util.GetIntEnv("SOS_DISPLAY_CAP"))
	}
	return &Config{
		Addr:          util.GetEnvOr("ADDR", ":8080"),
		Mode:          util.GetEnvOr("MODE", "release"),
		APIPrefix:     util.GetEnvOr("API_PREFIX", "/api"),
		SessionSecret: util.GetEnvOr("SESSION_SECRET", "guardianlink"),
		Language:      util.GetEnvOr("LANGUAGE", "en"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Store: kv.Config{
			Type:    util.GetEnvOr("STORE_TYPE", "memory"),
			Prefix:  util.GetEnvOr("STORE_PREFIX", "guardianlink:"),
			Layered: util.GetBoolEnv("STORE_LAYERED"),
			LRU:     kv.LRUConfig{Size: int(util.GetIntEnv("STORE_LRU_SIZE"))},
			Redis: kv.RedisConfig{
				Addr:         util.GetEnvOr("REDIS_ADDR", "localhost:6379"),
				Password:     util.GetEnv("REDIS_PASSWORD"),
				DB:           int(util.GetIntEnv("REDIS_DB")),
				PoolSize:     int(util.GetIntEnv("REDIS_POOL_SIZE")),
				DialTimeout:  util.GetDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
				ReadTimeout:  util.GetDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
				WriteTimeout: util.GetDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			},
			SQL: kv.SQLConfig{
				Driver: util.GetEnvOr("DB_DRIVER", "sqlite"),
				DSN:    util.GetEnvOr("DSN", "guardianlink.db"),
			},
		},
		LLM: llm.Config{
			Provider: util.GetEnvOr("LLM_PROVIDER", "static"),
			APIKey:   util.GetEnv("LLM_API_KEY"),
			BaseURL:  util.GetEnv("LLM_BASE_URL"),
			Model:    util.GetEnv("LLM_MODEL"),
			Timeout:  util.GetDurationEnv("LLM_TIMEOUT", 30*time.Second),
		},
		SOS: SOSConfig{
			Interval:      util.GetDurationEnv("SOS_INTERVAL", 5*time.Second),
			DisplayCap:    displayCap,
			AlertDelay:    util.GetDurationEnv("SOS_ALERT_DELAY", 1500*time.Millisecond),
			DisguiseDelay: util.GetDurationEnv("SOS_DISGUISE_DELAY", 3*time.Second),
		},
		Search: SearchConfig{
			Enabled: util.GetEnv("SEARCH_ENABLED") == "" || util.GetBoolEnv("SEARCH_ENABLED"),
			Path:    util.GetEnv("SEARCH_PATH"),
		},
		WebSocket:      websocket.LoadConfigFromEnv(),
		BackupEnabled:  util.GetBoolEnv("BACKUP_ENABLED"),
		BackupPath:     util.GetEnvOr("BACKUP_PATH", "backups"),
		BackupSchedule: util.GetEnvOr("BACKUP_SCHEDULE", "@daily"),
		RateLimitReply: util.GetEnvOr("RATE_LIMIT_REPLY", "20-M"),
		RateLimitAPI:   util.GetEnv("RATE_LIMIT_API"),
	}
}
