package handlers

import (
	"github.com/gin-gonic/gin"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/middleware"
	"HibiscusGuard/pkg/response"
)

type createGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *Handlers) handleCreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	group, err := h.services.Groups.Create(middleware.Actor(c), req.Name, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

func (h *Handlers) handleListGroups(c *gin.Context) {
	groups, err := h.services.Groups.FindByMember(middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"groups": groups})
}

func (h *Handlers) handleGetGroup(c *gin.Context) {
	group, err := h.services.Groups.FindByID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", group)
}

func (h *Handlers) handleUpdateGroupSettings(c *gin.Context) {
	var settings models.GroupSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	group, err := h.services.Groups.UpdateSettings(middleware.Actor(c), c.Param("id"), settings)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", group)
}

type addMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *Handlers) handleAddGroupMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Groups.AddMember(middleware.Actor(c), c.Param("id"), req.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "member added", nil)
}

func (h *Handlers) handleRemoveGroupMember(c *gin.Context) {
	if err := h.services.Groups.RemoveMember(middleware.Actor(c), c.Param("id"), c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "member removed", nil)
}

func (h *Handlers) handleDeleteGroup(c *gin.Context) {
	if err := h.services.Groups.Delete(middleware.Actor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "deleted", nil)
}
