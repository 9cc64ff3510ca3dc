package websocket

import (
	"time"

	"HibiscusGuard/pkg/util"
)

// Config WebSocket服务配置
type Config struct {
	// 连接限制
	MaxConnections int64
	SendBufferSize int
	MaxMessageSize int64

	// 心跳
	HeartbeatInterval time.Duration
	ConnectionTimeout time.Duration
	PingInterval      time.Duration
	PongTimeout       time.Duration
	WriteTimeout      time.Duration

	// 广播
	ShardCount           int
	BroadcastWorkerCount int
	MessageQueueSize     int

	// 背压策略
	DropOnFull          bool
	CloseOnBackpressure bool
	SendTimeout         time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxConnections:       10000,
		SendBufferSize:       256,
		MaxMessageSize:       4096,
		HeartbeatInterval:    30 * time.Second,
		ConnectionTimeout:    90 * time.Second,
		PingInterval:         25 * time.Second,
		PongTimeout:          60 * time.Second,
		WriteTimeout:         10 * time.Second,
		ShardCount:           8,
		BroadcastWorkerCount: 4,
		MessageQueueSize:     1024,
		DropOnFull:           true,
		CloseOnBackpressure:  false,
		SendTimeout:          50 * time.Millisecond,
	}
}

// LoadConfigFromEnv 从环境变量加载配置，未设置的项保持默认值
func LoadConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if v := util.GetIntEnv("WS_MAX_CONNECTIONS"); v > 0 {
		cfg.MaxConnections = v
	}
	if v := util.GetIntEnv("WS_SEND_BUFFER_SIZE"); v > 0 {
		cfg.SendBufferSize = int(v)
	}
	if v := util.GetIntEnv("WS_MAX_MESSAGE_SIZE"); v > 0 {
		cfg.MaxMessageSize = v
	}
	cfg.HeartbeatInterval = util.GetDurationEnv("WS_HEARTBEAT_INTERVAL", cfg.HeartbeatInterval)
	cfg.ConnectionTimeout = util.GetDurationEnv("WS_CONNECTION_TIMEOUT", cfg.ConnectionTimeout)
	cfg.PingInterval = util.GetDurationEnv("WS_PING_INTERVAL", cfg.PingInterval)
	cfg.PongTimeout = util.GetDurationEnv("WS_PONG_TIMEOUT", cfg.PongTimeout)
	cfg.WriteTimeout = util.GetDurationEnv("WS_WRITE_TIMEOUT", cfg.WriteTimeout)
	if v := util.GetIntEnv("WS_SHARD_COUNT"); v > 0 {
		cfg.ShardCount = int(v)
	}
	if v := util.GetIntEnv("WS_BROADCAST_WORKERS"); v > 0 {
		cfg.BroadcastWorkerCount = int(v)
	}
	if v := util.GetIntEnv("WS_MESSAGE_QUEUE_SIZE"); v > 0 {
		cfg.MessageQueueSize = int(v)
	}
	if util.GetEnv("WS_DROP_ON_FULL") != "" {
		cfg.DropOnFull = util.GetBoolEnv("WS_DROP_ON_FULL")
	}
	if util.GetEnv("WS_CLOSE_ON_BACKPRESSURE") != "" {
		cfg.CloseOnBackpressure = util.GetBoolEnv("WS_CLOSE_ON_BACKPRESSURE")
	}
	cfg.SendTimeout = util.GetDurationEnv("WS_SEND_TIMEOUT", cfg.SendTimeout)
	return cfg
}
