package websocket

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"HibiscusGuard/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境应校验Origin白名单
		return true
	},
}

// Handler WebSocket接入处理器
type Handler struct {
	hub *Hub
}

// NewHandler 创建WebSocket处理器
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// Hub 返回底层Hub
func (h *Handler) Hub() *Hub {
	return h.hub
}

// HandleWebSocket 处理WebSocket升级请求
func (h *Handler) HandleWebSocket(c *gin.Context) {
	session := sessions.Default(c)
	userID, _ := session.Get("user_id").(string)
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrUserNotLoggedIn})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Errorf("WebSocket升级失败: %v", err)
		return
	}

	wsConn := NewConnection(conn, userID, h.hub)
	wsConn.Start()
}

// GetStats 返回连接统计
func (h *Handler) GetStats(c *gin.Context) {
	response.Success(c, "success", gin.H{
		"connections": h.hub.GetConnectionCount(),
		"user_conns":  h.hub.GetUserConnections(c.Query("user_id")),
	})
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	response.Success(c, "success", gin.H{"status": "ok"})
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET(RouteWebSocket, h.HandleWebSocket)
	r.GET(RouteStats, h.GetStats)
	r.GET(RouteHealth, h.HealthCheck)
}
