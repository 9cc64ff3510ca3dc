package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"HibiscusGuard/pkg/config"
)

// 生成 HMAC 签名
func generateSignature(data, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignVerifyMiddleware 设备上报签名验证。
// 签名数据 = 方法 + 路径 + 请求体 + 时间戳
func SignVerifyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		signature := c.GetHeader("Signature")
		if signature == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature is missing"})
			c.Abort()
			return
		}

		timestamp := c.DefaultQuery("timestamp", "")
		if timestamp == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Timestamp is missing"})
			c.Abort()
			return
		}

		// 读取请求体后需要放回去，后续handler还要绑定
		var requestBody string
		if c.Request.Method == http.MethodPost {
			bodyBytes, _ := c.GetRawData()
			requestBody = string(bodyBytes)
			c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		data := fmt.Sprintf("%s%s%s", c.Request.Method, c.Request.URL.Path, requestBody+timestamp)

		expectedSignature := generateSignature(data, config.GlobalConfig.DeviceSecret)
		if !hmac.Equal([]byte(signature), []byte(expectedSignature)) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			c.Abort()
			return
		}

		c.Next()
	}
}
