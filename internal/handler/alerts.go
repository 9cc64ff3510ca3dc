package handlers

import (
	"github.com/gin-gonic/gin"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/internal/service"
	"HibiscusGuard/pkg/middleware"
	"HibiscusGuard/pkg/response"
)

type createAlertRequest struct {
	AlertType models.AlertType `json:"alertType"`
	GroupID   string           `json:"groupId"`
	Message   string           `json:"message"`
	Location  models.Location  `json:"location"`
	MediaURLs []string         `json:"mediaUrls"`
}

func (h *Handlers) handleCreateAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	alert, err := h.services.Alerts.Create(middleware.Actor(c), service.CreateAlertInput{
		AlertType: req.AlertType,
		GroupID:   req.GroupID,
		Message:   req.Message,
		Location:  req.Location,
		MediaURLs: req.MediaURLs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, alert)
}

func (h *Handlers) handleListAlerts(c *gin.Context) {
	actor := middleware.Actor(c)

	if groupID := c.Query("groupId"); groupID != "" {
		alerts, err := h.services.Alerts.FindByGroup(actor, groupID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, "success", gin.H{"alerts": alerts})
		return
	}

	alerts, err := h.services.Alerts.FindByOwner(actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"alerts": alerts})
}

func (h *Handlers) handleAlertsNearby(c *gin.Context) {
	center, radius, ok := nearbyParams(c)
	if !ok {
		return
	}
	alerts, err := h.services.Alerts.FindNear(center, radius)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"alerts": alerts})
}

func (h *Handlers) handleGetAlert(c *gin.Context) {
	alert, err := h.services.Alerts.FindByID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", alert)
}

type updateAlertStatusRequest struct {
	Status models.AlertStatus `json:"status" binding:"required"`
}

func (h *Handlers) handleUpdateAlertStatus(c *gin.Context) {
	var req updateAlertStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	alert, err := h.services.Alerts.UpdateStatus(middleware.Actor(c), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", alert)
}

type appendResponseRequest struct {
	ResponseType models.ResponseType `json:"responseType" binding:"required"`
	Message      string              `json:"message"`
	Location     models.Location     `json:"location"`
}

func (h *Handlers) handleAppendAlertResponse(c *gin.Context) {
	var req appendResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	alert, err := h.services.Alerts.AppendResponse(middleware.Actor(c), c.Param("id"), service.AppendResponseInput{
		ResponseType: req.ResponseType,
		Message:      req.Message,
		Location:     req.Location,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, alert)
}

func (h *Handlers) handleDeleteAlert(c *gin.Context) {
	if err := h.services.Alerts.Delete(middleware.Actor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "deleted", nil)
}
