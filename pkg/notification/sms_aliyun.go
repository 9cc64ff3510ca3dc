package notification

import (
	"context"
	"fmt"
)

type AliyunSMSConfig struct {
	AccessKeyId     string
	AccessKeySecret string
	SignName        string
	TemplateCode    string
	Endpoint        string // 默认 cn-hangzhou
}

// AliyunSMSClient 便于替换/注入的发送接口（适配真实 SDK）
type AliyunSMSClient interface {
	Send(ctx context.Context, phone, sign, template string, params map[string]string) error
}

// AliyunSMS 应急短信。推送与长连接都不可达时的最后兜底
type AliyunSMS struct {
	cfg AliyunSMSConfig
	cli AliyunSMSClient
}

func NewAliyunSMS(cfg AliyunSMSConfig, cli AliyunSMSClient) *AliyunSMS {
	return &AliyunSMS{cfg: cfg, cli: cli}
}

// SendAlertSMS 向紧急联系人发送警报短信
func (a *AliyunSMS) SendAlertSMS(ctx context.Context, phone, ownerName, message string) error {
	if a.cli == nil {
		return fmt.Errorf("sms client not configured")
	}
	return a.cli.Send(ctx, phone, a.cfg.SignName, a.cfg.TemplateCode, map[string]string{
		"name":    ownerName,
		"message": message,
	})
}
