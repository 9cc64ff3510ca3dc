package handlers

import (
	"github.com/gin-gonic/gin"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/middleware"
	"HibiscusGuard/pkg/response"
)

type ingestEventRequest struct {
	DeviceID   string           `json:"deviceId"`
	EventType  models.EventType `json:"eventType" binding:"required"`
	Location   models.Location  `json:"location"`
	Confidence float64          `json:"confidence"`
	RawData    string           `json:"rawData"`
}

func (h *Handlers) handleIngestEvent(c *gin.Context) {
	var req ingestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	result, err := h.services.Events.Ingest(&models.Event{
		UserID:     middleware.Actor(c),
		DeviceID:   req.DeviceID,
		EventType:  req.EventType,
		Location:   req.Location,
		Confidence: req.Confidence,
		RawData:    req.RawData,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *Handlers) handleListEvents(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	events, err := h.services.Events.FindRecentByOwner(middleware.Actor(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"events": events})
}

func (h *Handlers) handleGetEvent(c *gin.Context) {
	event, err := h.services.Events.FindByID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", event)
}
