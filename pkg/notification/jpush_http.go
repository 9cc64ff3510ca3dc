package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const jpushAPI = "https://api.jpush.cn/v3/push"

// jpushHTTPClient 直连极光REST API的客户端
type jpushHTTPClient struct {
	cfg  JPushConfig
	http *http.Client
}

// NewJPushHTTPClient 构造REST客户端
func NewJPushHTTPClient(cfg JPushConfig) JPushClient {
	return &jpushHTTPClient{cfg: cfg, http: &http.Client{Timeout: 5 * time.Second}}
}

func (c *jpushHTTPClient) Push(ctx context.Context, title, content string, audience map[string]interface{}, extras map[string]interface{}) error {
	payload := map[string]interface{}{
		"platform": "all",
		"audience": audience,
		"notification": map[string]interface{}{
			"alert": content,
			"android": map[string]interface{}{
				"title":  title,
				"extras": extras,
			},
			"ios": map[string]interface{}{
				"extras": extras,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, jpushAPI, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.AppKey, c.cfg.MasterSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("jpush returned status %d", resp.StatusCode)
	}
	return nil
}
