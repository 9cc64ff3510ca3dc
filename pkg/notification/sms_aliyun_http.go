package notification

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// aliyunSMSHTTPClient 直连阿里云短信服务的RPC客户端，不依赖官方SDK
type aliyunSMSHTTPClient struct {
	cfg  AliyunSMSConfig
	http *http.Client
}

// NewAliyunSMSHTTPClient 构造RPC客户端
func NewAliyunSMSHTTPClient(cfg AliyunSMSConfig) AliyunSMSClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://dysmsapi.aliyuncs.com"
	}
	return &aliyunSMSHTTPClient{cfg: cfg, http: &http.Client{Timeout: 5 * time.Second}}
}

func (c *aliyunSMSHTTPClient) Send(ctx context.Context, phone, sign, template string, params map[string]string) error {
	templateParam, err := json.Marshal(params)
	if err != nil {
		return err
	}

	query := map[string]string{
		"Action":           "SendSms",
		"Version":          "2017-05-25",
		"Format":           "JSON",
		"PhoneNumbers":     phone,
		"SignName":         sign,
		"TemplateCode":     template,
		"TemplateParam":    string(templateParam),
		"RegionId":         "cn-hangzhou",
		"AccessKeyId":      c.cfg.AccessKeyId,
		"SignatureMethod":  "HMAC-SHA1",
		"SignatureVersion": "1.0",
		"SignatureNonce":   nonce(),
		"Timestamp":        time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	}
	query["Signature"] = c.signature(query)

	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"/?"+values.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("aliyun sms returned status %d", resp.StatusCode)
	}

	var result struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if result.Code != "OK" {
		return fmt.Errorf("aliyun sms rejected: %s %s", result.Code, result.Message)
	}
	return nil
}

// signature 按阿里云RPC规范对请求参数做HMAC-SHA1签名
func (c *aliyunSMSHTTPClient) signature(query map[string]string) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(query[k]))
	}
	stringToSign := "GET&%2F&" + percentEncode(strings.Join(pairs, "&"))

	mac := hmac.New(sha1.New, []byte(c.cfg.AccessKeySecret+"&"))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode RFC3986编码，阿里云要求 + * %7E 三处特殊处理
func percentEncode(s string) string {
	encoded := url.QueryEscape(s)
	encoded = strings.ReplaceAll(encoded, "+", "%20")
	encoded = strings.ReplaceAll(encoded, "*", "%2A")
	encoded = strings.ReplaceAll(encoded, "%7E", "~")
	return encoded
}

func nonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
