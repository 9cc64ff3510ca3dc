package config

import (
	"log"
	"os"
	"time"

	"HibiscusGuard/pkg/cache"
	"HibiscusGuard/pkg/logger"
	"HibiscusGuard/pkg/util"
)

// config/config.go
type Config struct {
	Addr          string `env:"ADDR"`
	Mode          string `env:"MODE"`
	DBDriver      string `env:"DB_DRIVER"`
	DSN           string `env:"DSN"`
	SessionSecret string `env:"SESSION_SECRET"`
	DeviceSecret  string `env:"DEVICE_SECRET"` // 设备上报HMAC密钥，为空时跳过签名校验
	APIPrefix     string `env:"API_PREFIX"`

	Log   logger.LogConfig
	Cache cache.Config

	// Redis pub/sub 推送（多实例部署时启用）
	RedisFanoutEnabled bool   `env:"REDIS_FANOUT_ENABLED"`
	RedisAddr          string `env:"REDIS_ADDR"`
	RedisPassword      string `env:"REDIS_PASSWORD"`
	RedisDB            int    `env:"REDIS_DB"`

	// 风险区过期清理
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL"`
	EventRetention   time.Duration `env:"EVENT_RETENTION"`
	RiskAlertTTL     time.Duration `env:"RISK_ALERT_TTL"`
	MembershipTTL    time.Duration `env:"MEMBERSHIP_CACHE_TTL"`
	RateLimit        string        `env:"RATE_LIMIT"`         // 全局默认速率
	IngestRateLimit  string        `env:"INGEST_RATE_LIMIT"`  // e.g. "120-M"
	MessageRateLimit string        `env:"MESSAGE_RATE_LIMIT"` // e.g. "60-M"

	// MinIO 媒体附件存储
	MediaEnabled bool `env:"MEDIA_ENABLED"`

	// 数据库定时备份
	BackupSchedule string `env:"BACKUP_SCHEDULE"` // cron表达式，空则不备份
	BackupPath     string `env:"BACKUP_PATH"`

	// 移动端推送与应急短信
	JPushAppKey        string `env:"JPUSH_APP_KEY"`
	JPushMasterSecret  string `env:"JPUSH_MASTER_SECRET"`
	SMSAccessKeyID     string `env:"SMS_ACCESS_KEY_ID"`
	SMSAccessKeySecret string `env:"SMS_ACCESS_KEY_SECRET"`
	SMSSignName        string `env:"SMS_SIGN_NAME"`
	SMSTemplateCode    string `env:"SMS_TEMPLATE_CODE"`
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
	GlobalConfig = &Config{
		Addr:          util.GetEnvDefault("ADDR", ":8080"),
		Mode:          util.GetEnvDefault("MODE", "debug"),
		DBDriver:      util.GetEnv("DB_DRIVER"),
		DSN:           util.GetEnv("DSN"),
		SessionSecret: util.GetEnv("SESSION_SECRET"),
		DeviceSecret:  util.GetEnv("DEVICE_SECRET"),
		APIPrefix:     util.GetEnvDefault("API_PREFIX", "/api"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Cache: cache.Config{
			Type: util.GetEnvDefault("CACHE_TYPE", "gocache"),
			Redis: cache.RedisConfig{
				Addr:     util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
				Password: util.GetEnv("REDIS_PASSWORD"),
				DB:       int(util.GetIntEnv("REDIS_DB")),
				PoolSize: int(util.GetIntEnv("REDIS_POOL_SIZE")),
			},
			Local: cache.LocalConfig{
				DefaultExpiration: util.GetDurationEnv("CACHE_DEFAULT_TTL", 5*time.Minute),
				CleanupInterval:   util.GetDurationEnv("CACHE_CLEANUP_INTERVAL", 10*time.Minute),
			},
		},
		RedisFanoutEnabled: util.GetBoolEnv("REDIS_FANOUT_ENABLED"),
		RedisAddr:          util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      util.GetEnv("REDIS_PASSWORD"),
		RedisDB:            int(util.GetIntEnv("REDIS_DB")),
		SweepInterval:      util.GetDurationEnv("SWEEP_INTERVAL", 10*time.Minute),
		EventRetention:     util.GetDurationEnv("EVENT_RETENTION", 90*24*time.Hour),
		RiskAlertTTL:       util.GetDurationEnv("RISK_ALERT_TTL", 24*time.Hour),
		MembershipTTL:      util.GetDurationEnv("MEMBERSHIP_CACHE_TTL", time.Minute),
		RateLimit:          util.GetEnvDefault("RATE_LIMIT", "600-M"),
		IngestRateLimit:    util.GetEnvDefault("INGEST_RATE_LIMIT", "120-M"),
		MessageRateLimit:   util.GetEnvDefault("MESSAGE_RATE_LIMIT", "60-M"),
		MediaEnabled:       util.GetBoolEnv("MEDIA_ENABLED"),
		BackupSchedule:     util.GetEnv("BACKUP_SCHEDULE"),
		BackupPath:         util.GetEnvDefault("BACKUP_PATH", "backups"),
		JPushAppKey:        util.GetEnv("JPUSH_APP_KEY"),
		JPushMasterSecret:  util.GetEnv("JPUSH_MASTER_SECRET"),
		SMSAccessKeyID:     util.GetEnv("SMS_ACCESS_KEY_ID"),
		SMSAccessKeySecret: util.GetEnv("SMS_ACCESS_KEY_SECRET"),
		SMSSignName:        util.GetEnv("SMS_SIGN_NAME"),
		SMSTemplateCode:    util.GetEnv("SMS_TEMPLATE_CODE"),
	}

	return nil
}
