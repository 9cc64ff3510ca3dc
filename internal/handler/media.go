package handlers

import (
	"path"

	"github.com/gin-gonic/gin"

	"HibiscusGuard/pkg/middleware"
	"HibiscusGuard/pkg/response"
)

// handleUploadAlertMedia 上传警报附件并追加到警报的mediaUrls
func (h *Handlers) handleUploadAlertMedia(c *gin.Context) {
	alertID := c.Param("id")

	form, err := c.MultipartForm()
	if err != nil {
		response.Fail(c, "invalid multipart form", gin.H{"error": err.Error()})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		response.Fail(c, "no files provided", nil)
		return
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			response.Fail(c, "cannot read upload", gin.H{"error": err.Error()})
			return
		}

		url, err := h.media.Upload(c.Request.Context(),
			path.Join("alerts", alertID), file.Filename,
			src, file.Size, file.Header.Get("Content-Type"))
		src.Close()
		if err != nil {
			response.Error(c, err)
			return
		}
		urls = append(urls, url)
	}

	alert, err := h.services.Alerts.AttachMedia(middleware.Actor(c), alertID, urls)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, alert)
}
