package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/geo"
	"HibiscusGuard/pkg/middleware"
	"HibiscusGuard/pkg/response"
)

// nearbyParams 解析 lat/lon/radius 查询参数，失败时已写响应
func nearbyParams(c *gin.Context) (geo.Point, float64, bool) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		response.Fail(c, "invalid lat", nil)
		return geo.Point{}, 0, false
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		response.Fail(c, "invalid lon", nil)
		return geo.Point{}, 0, false
	}
	radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "1000"), 64)
	if err != nil {
		response.Fail(c, "invalid radius", nil)
		return geo.Point{}, 0, false
	}
	return geo.Point{Lat: lat, Lon: lon}, radius, true
}

func intQuery(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

type safeHavenRequest struct {
	Name         string  `json:"name" binding:"required"`
	Description  string  `json:"description"`
	Address      string  `json:"address"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	RadiusMeters float64 `json:"radiusMeters"`
	GroupID      string  `json:"groupId"`
	IsPublic     bool    `json:"isPublic"`
}

func (h *Handlers) handleCreateSafeHaven(c *gin.Context) {
	var req safeHavenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	sh, err := h.services.SafeHavens.Create(middleware.Actor(c), &models.SafeHaven{
		Name:         req.Name,
		Description:  req.Description,
		Address:      req.Address,
		Lat:          req.Lat,
		Lon:          req.Lon,
		RadiusMeters: req.RadiusMeters,
		GroupID:      req.GroupID,
		IsPublic:     req.IsPublic,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sh)
}

func (h *Handlers) handleListSafeHavens(c *gin.Context) {
	havens, err := h.services.SafeHavens.FindAccessible(middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"safeHavens": havens})
}

func (h *Handlers) handleSafeHavensNearby(c *gin.Context) {
	center, radius, ok := nearbyParams(c)
	if !ok {
		return
	}
	havens, err := h.services.SafeHavens.FindAccessibleNear(middleware.Actor(c), center, radius)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"safeHavens": havens})
}

func (h *Handlers) handlePublicSafeHavensNearby(c *gin.Context) {
	center, radius, ok := nearbyParams(c)
	if !ok {
		return
	}
	havens, err := h.services.SafeHavens.FindPublicNear(center, radius)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"safeHavens": havens})
}

func (h *Handlers) handleLocateSafeHaven(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		response.Fail(c, "invalid lat", nil)
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		response.Fail(c, "invalid lon", nil)
		return
	}

	result, err := h.services.SafeHavens.Locate(middleware.Actor(c), geo.Point{Lat: lat, Lon: lon})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", result)
}

func (h *Handlers) handleGetSafeHaven(c *gin.Context) {
	sh, err := h.services.SafeHavens.FindByID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", sh)
}

func (h *Handlers) handleUpdateSafeHaven(c *gin.Context) {
	var req safeHavenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	sh, err := h.services.SafeHavens.Update(middleware.Actor(c), &models.SafeHaven{
		ID:           c.Param("id"),
		Name:         req.Name,
		Description:  req.Description,
		Address:      req.Address,
		Lat:          req.Lat,
		Lon:          req.Lon,
		RadiusMeters: req.RadiusMeters,
		GroupID:      req.GroupID,
		IsPublic:     req.IsPublic,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", sh)
}

func (h *Handlers) handleDeleteSafeHaven(c *gin.Context) {
	if err := h.services.SafeHavens.Delete(middleware.Actor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "deleted", nil)
}
