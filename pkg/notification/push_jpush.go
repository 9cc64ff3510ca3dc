package notification

import (
	"context"
	"fmt"
)

type JPushConfig struct {
	AppKey       string
	MasterSecret string
}

// JPushClient 便于替换/注入的推送接口（适配真实 SDK）
type JPushClient interface {
	Push(ctx context.Context, title, content string, audience map[string]interface{}, extras map[string]interface{}) error
}

// JPush 移动端推送。警报和系统通知在长连接之外补一条APNs/FCM通道
type JPush struct {
	cfg JPushConfig
	cli JPushClient
}

func NewJPush(cfg JPushConfig, cli JPushClient) *JPush { return &JPush{cfg: cfg, cli: cli} }

// PushToAlias 以用户ID为别名推送
func (j *JPush) PushToAlias(ctx context.Context, alias []string, title, content string, extras map[string]interface{}) error {
	if j.cli == nil {
		return fmt.Errorf("push client not configured")
	}
	aud := map[string]interface{}{"alias": alias}
	return j.cli.Push(ctx, title, content, aud, extras)
}

// PushAlert 新警报推送，附带警报ID供客户端跳转
func (j *JPush) PushAlert(ctx context.Context, userIDs []string, alertID, message string) error {
	return j.PushToAlias(ctx, userIDs, "Safety alert", message, map[string]interface{}{
		"alert_id": alertID,
	})
}
