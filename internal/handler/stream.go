package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"HibiscusGuard/pkg/errors"
	"HibiscusGuard/pkg/middleware"
	"HibiscusGuard/pkg/response"
)

// handleSSE 为不便使用WebSocket的客户端提供事件流，
// ?channels=a,b 指定初始订阅。他人的 user:{id}:* 频道不允许订阅
func (h *Handlers) handleSSE(c *gin.Context) {
	actorID := middleware.Actor(c)
	if raw := c.Query("channels"); raw != "" {
		for _, channel := range strings.Split(raw, ",") {
			channel = strings.TrimSpace(channel)
			if strings.HasPrefix(channel, "user:") && !strings.HasPrefix(channel, "user:"+actorID+":") {
				response.Error(c, errors.Forbiddenf("cannot subscribe to channel %s", channel))
				return
			}
		}
	}
	h.sse.Serve(c, actorID+":"+uuid.NewString())
}
