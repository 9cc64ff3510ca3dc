package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// ActorKey 存放在gin上下文中的当前用户ID键名
const ActorKey = "actor_id"

// AuthRequired 会话认证。网关完成登录后把用户ID写入会话，
// 这里只做解析与拦截
func AuthRequired(c *gin.Context) {
	session := sessions.Default(c)
	userID, _ := session.Get("user_id").(string)
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
		return
	}
	c.Set(ActorKey, userID)
	c.Next()
}

// Actor returns the authenticated user id set by AuthRequired.
func Actor(c *gin.Context) string {
	return c.GetString(ActorKey)
}
