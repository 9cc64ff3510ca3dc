package fanout

import (
	"context"
	"strings"
	"time"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/notification"
)

// PhoneDirectory 查询用户的应急短信号码
type PhoneDirectory interface {
	EmergencyPhone(userID string) (string, bool)
}

// PushPublisher 把用户私有频道的事件镜像到移动端推送，
// 配置了短信时同时给应急联系人发短信。
// 只处理 user:{id}:alerts 与 user:{id}:notifications，其余频道忽略
type PushPublisher struct {
	jp      *notification.JPush
	sms     *notification.AliyunSMS
	phones  PhoneDirectory
	timeout time.Duration
}

// NewPushPublisher creates a publisher that mirrors user channels to push.
// sms and phones may be nil to disable the SMS leg.
func NewPushPublisher(jp *notification.JPush, sms *notification.AliyunSMS, phones PhoneDirectory) *PushPublisher {
	return &PushPublisher{jp: jp, sms: sms, phones: phones, timeout: 5 * time.Second}
}

func (p *PushPublisher) Publish(channel string, payload interface{}) error {
	userID, kind, ok := parseUserChannel(channel)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	switch kind {
	case "alerts":
		alert, ok := payload.(*models.Alert)
		if !ok {
			return nil
		}
		if p.sms != nil && p.phones != nil {
			if phone, found := p.phones.EmergencyPhone(alert.UserID); found {
				// 短信是兜底通道，失败不挡推送
				_ = p.sms.SendAlertSMS(ctx, phone, alert.UserID, alert.Message)
			}
		}
		return p.jp.PushAlert(ctx, []string{userID}, alert.ID, alert.Message)
	case "notifications":
		if note, ok := payload.(SystemNotification); ok {
			return p.jp.PushToAlias(ctx, []string{userID}, "Notification", note.Message, nil)
		}
	}
	return nil
}

// parseUserChannel 解析 user:{id}:{kind} 形式的频道名
func parseUserChannel(channel string) (userID, kind string, ok bool) {
	if !strings.HasPrefix(channel, "user:") {
		return "", "", false
	}
	parts := strings.SplitN(channel, ":", 3)
	if len(parts) != 3 {
		return "", "", false
	}
	return parts[1], parts[2], true
}
