package handlers

import (
	"github.com/gin-gonic/gin"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/internal/service"
	"HibiscusGuard/pkg/middleware"
	"HibiscusGuard/pkg/response"
)

type sendMessageRequest struct {
	Content     string             `json:"content"`
	MessageType models.MessageType `json:"messageType"`
	MediaURLs   []string           `json:"mediaUrls"`
	Location    models.Location    `json:"location"`
}

func (r *sendMessageRequest) toInput() service.SendMessageInput {
	return service.SendMessageInput{
		Content:     r.Content,
		MessageType: r.MessageType,
		MediaURLs:   r.MediaURLs,
		Location:    r.Location,
	}
}

func (h *Handlers) handleSendGroupMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	msg, err := h.services.Messages.SendToGroup(middleware.Actor(c), c.Param("groupId"), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

func (h *Handlers) handleGroupHistory(c *gin.Context) {
	msgs, err := h.services.Messages.GroupHistory(middleware.Actor(c), c.Param("groupId"), intQuery(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"messages": msgs})
}

func (h *Handlers) handleSendDirectMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	msg, err := h.services.Messages.SendDirect(middleware.Actor(c), c.Param("userId"), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

func (h *Handlers) handleDirectHistory(c *gin.Context) {
	msgs, err := h.services.Messages.DirectHistory(middleware.Actor(c), c.Param("userId"), intQuery(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"messages": msgs})
}

func (h *Handlers) handleMarkMessageRead(c *gin.Context) {
	if err := h.services.Messages.MarkRead(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", nil)
}
