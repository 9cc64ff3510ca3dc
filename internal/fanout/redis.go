package fanout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher 通过Redis PUBLISH跨实例分发事件，
// 供多实例部署时各实例的Hub订阅转发
type RedisPublisher struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisPublisher creates a publisher backed by Redis pub/sub.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client, timeout: 3 * time.Second}
}

// Publish 序列化payload并PUBLISH到对应频道
func (p *RedisPublisher) Publish(channel string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.client.Publish(ctx, channel, data).Err()
}
