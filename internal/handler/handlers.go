package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"HibiscusGuard/internal/service"
	"HibiscusGuard/pkg/config"
	"HibiscusGuard/pkg/metrics"
	"HibiscusGuard/pkg/middleware"
	"HibiscusGuard/pkg/sse"
	"HibiscusGuard/pkg/storage"
	"HibiscusGuard/pkg/websocket"
)

// Handlers HTTP接入层。只做解析、鉴权主体提取与响应封装，
// 业务规则全部在service层
type Handlers struct {
	db       *gorm.DB
	services *service.Services
	ws       *websocket.Handler
	sse      *sse.Hub
	media    storage.MediaStore
}

// NewHandlers wires the HTTP layer.
func NewHandlers(db *gorm.DB, services *service.Services, ws *websocket.Handler, sseHub *sse.Hub, media storage.MediaStore) *Handlers {
	return &Handlers{db: db, services: services, ws: ws, sse: sseHub, media: media}
}

// Register mounts all routes under the configured API prefix.
func (h *Handlers) Register(engine *gin.Engine) {
	engine.GET("/metrics", metrics.Handler())
	engine.GET("/health", h.HealthCheck)

	r := engine.Group(config.GlobalConfig.APIPrefix)

	h.registerEventRoutes(r)
	h.registerAlertRoutes(r)
	h.registerSafeHavenRoutes(r)
	h.registerRiskAlertRoutes(r)
	h.registerGroupRoutes(r)
	h.registerMessageRoutes(r)
	h.registerMediaRoutes(r)
	h.registerStreamRoutes(r)
	h.registerAdminRoutes(r)

	if h.ws != nil {
		h.ws.RegisterRoutes(r)
	}
}

func (h *Handlers) registerEventRoutes(r *gin.RouterGroup) {
	events := r.Group("/events")
	events.Use(middleware.AuthRequired)
	{
		// 设备上报通道：配置了密钥时校验HMAC签名，重复上报按幂等键拒绝
		ingest := []gin.HandlerFunc{}
		if config.GlobalConfig.DeviceSecret != "" {
			ingest = append(ingest, middleware.SignVerifyMiddleware())
		}
		ingest = append(ingest, middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{}), h.handleIngestEvent)
		events.POST("", ingest...)
		events.GET("", h.handleListEvents)
		events.GET("/:id", h.handleGetEvent)
	}
}

func (h *Handlers) registerStreamRoutes(r *gin.RouterGroup) {
	if h.sse == nil {
		return
	}
	r.GET("/sse", middleware.AuthRequired, h.handleSSE)
}

func (h *Handlers) registerAlertRoutes(r *gin.RouterGroup) {
	alerts := r.Group("/alerts")
	alerts.Use(middleware.AuthRequired)
	{
		alerts.POST("", h.handleCreateAlert)
		alerts.GET("", h.handleListAlerts)
		alerts.GET("/nearby", h.handleAlertsNearby)
		alerts.GET("/:id", h.handleGetAlert)
		alerts.PUT("/:id/status", h.handleUpdateAlertStatus)
		alerts.POST("/:id/responses", h.handleAppendAlertResponse)
		alerts.DELETE("/:id", h.handleDeleteAlert)
	}
}

func (h *Handlers) registerSafeHavenRoutes(r *gin.RouterGroup) {
	havens := r.Group("/safehavens")
	havens.Use(middleware.AuthRequired)
	{
		havens.POST("", h.handleCreateSafeHaven)
		havens.GET("", h.handleListSafeHavens)
		havens.GET("/nearby", h.handleSafeHavensNearby)
		havens.GET("/public", h.handlePublicSafeHavensNearby)
		havens.GET("/locate", h.handleLocateSafeHaven)
		havens.GET("/:id", h.handleGetSafeHaven)
		havens.PUT("/:id", h.handleUpdateSafeHaven)
		havens.DELETE("/:id", h.handleDeleteSafeHaven)
	}
}

func (h *Handlers) registerRiskAlertRoutes(r *gin.RouterGroup) {
	risks := r.Group("/riskalerts")
	risks.Use(middleware.AuthRequired)
	{
		risks.POST("", h.handleCreateRiskAlert)
		risks.POST("/expire", h.handleExpireRiskAlerts)
		risks.GET("/nearby", h.handleRiskAlertsNearby)
		risks.GET("/:id", h.handleGetRiskAlert)
		risks.DELETE("/:id", h.handleDeleteRiskAlert)
	}
}

func (h *Handlers) registerAdminRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired)
	{
		admin.PUT("/ratelimit", h.UpdateRateLimiterConfig)
	}
}

func (h *Handlers) registerGroupRoutes(r *gin.RouterGroup) {
	groups := r.Group("/groups")
	groups.Use(middleware.AuthRequired)
	{
		groups.POST("", h.handleCreateGroup)
		groups.GET("", h.handleListGroups)
		groups.GET("/:id", h.handleGetGroup)
		groups.PUT("/:id/settings", h.handleUpdateGroupSettings)
		groups.POST("/:id/members", h.handleAddGroupMember)
		groups.DELETE("/:id/members/:userId", h.handleRemoveGroupMember)
		groups.DELETE("/:id", h.handleDeleteGroup)
	}
}

func (h *Handlers) registerMessageRoutes(r *gin.RouterGroup) {
	messages := r.Group("/messages")
	messages.Use(middleware.AuthRequired)
	{
		messages.POST("/group/:groupId", h.handleSendGroupMessage)
		messages.GET("/group/:groupId", h.handleGroupHistory)
		messages.POST("/direct/:userId", h.handleSendDirectMessage)
		messages.GET("/direct/:userId", h.handleDirectHistory)
		messages.PUT("/:id/read", h.handleMarkMessageRead)
	}
}

func (h *Handlers) registerMediaRoutes(r *gin.RouterGroup) {
	if h.media == nil {
		return
	}
	media := r.Group("/media")
	media.Use(middleware.AuthRequired)
	{
		media.POST("/alerts/:id", h.handleUploadAlertMedia)
	}
}
