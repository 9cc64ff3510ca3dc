package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/response"
)

type riskAlertRequest struct {
	Title        string           `json:"title" binding:"required"`
	Description  string           `json:"description"`
	RiskLevel    models.RiskLevel `json:"riskLevel" binding:"required"`
	RiskType     models.RiskType  `json:"riskType"`
	Lat          float64          `json:"lat"`
	Lon          float64          `json:"lon"`
	RadiusMeters float64          `json:"radiusMeters"`
	Source       string           `json:"source"`
	SourceURL    string           `json:"sourceUrl"`
	ExpiresAt    *time.Time       `json:"expiresAt"`
}

func (h *Handlers) handleCreateRiskAlert(c *gin.Context) {
	var req riskAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	ra := &models.RiskAlert{
		Title:        req.Title,
		Description:  req.Description,
		RiskLevel:    req.RiskLevel,
		RiskType:     req.RiskType,
		Lat:          req.Lat,
		Lon:          req.Lon,
		RadiusMeters: req.RadiusMeters,
		Source:       req.Source,
		SourceURL:    req.SourceURL,
	}
	if req.ExpiresAt != nil {
		ra.ExpiresAt = *req.ExpiresAt
	}

	created, err := h.services.RiskAlerts.Create(ra)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

func (h *Handlers) handleRiskAlertsNearby(c *gin.Context) {
	center, radius, ok := nearbyParams(c)
	if !ok {
		return
	}

	minLevel := models.RiskLevel(c.Query("minLevel"))
	alerts, err := h.services.RiskAlerts.FindActiveNear(center, radius, minLevel)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"riskAlerts": alerts})
}

func (h *Handlers) handleGetRiskAlert(c *gin.Context) {
	ra, err := h.services.RiskAlerts.FindByID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", ra)
}

func (h *Handlers) handleDeleteRiskAlert(c *gin.Context) {
	if err := h.services.RiskAlerts.Delete(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "deleted", nil)
}

// handleExpireRiskAlerts 立即执行一次过期清理，定时任务之外的手动入口
func (h *Handlers) handleExpireRiskAlerts(c *gin.Context) {
	n, err := h.services.RiskAlerts.ExpireOld()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "expired risk alerts removed", gin.H{"count": n})
}
