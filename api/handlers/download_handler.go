package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediavault/internal/app"
	"github.com/yourusername/mediavault/internal/domain"
)

// DownloadHandler handles download queue HTTP requests
type DownloadHandler struct {
	queueMgr *app.QueueManager
	logger   *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(queueMgr *app.QueueManager, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		queueMgr: queueMgr,
		logger:   logger,
	}
}

// AddDownloadRequest represents a request to queue a download
type AddDownloadRequest struct {
	URL          string `json:"url" binding:"required"`
	MediaKind    string `json:"media_kind,omitempty"`
	QualityTier  string `json:"quality_tier,omitempty"`
	WantPlaylist bool   `json:"want_playlist,omitempty"`
	ContainerExt string `json:"container_ext,omitempty"`
	SkipExisting bool   `json:"skip_existing,omitempty"`
}

// AddDownload handles POST /api/v1/downloads. The job is accepted into
// the queue, not downloaded synchronously, hence 202.
func (h *DownloadHandler) AddDownload(c *gin.Context) {
	var req AddDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	options := domain.DownloadOptions{
		MediaKind:    domain.MediaKind(req.MediaKind),
		QualityTier:  domain.QualityTier(req.QualityTier),
		WantPlaylist: req.WantPlaylist,
		ContainerExt: req.ContainerExt,
		SkipExisting: req.SkipExisting,
	}
	if options.MediaKind == "" {
		options.MediaKind = domain.MediaKindVideo
	}

	job, err := h.queueMgr.AddJob(req.URL, options)
	if err != nil {
		h.logger.Error("Failed to add job", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "download queued",
		"id":      job.ID,
	})
}

// ListDownloads handles GET /api/v1/downloads
func (h *DownloadHandler) ListDownloads(c *gin.Context) {
	if c.Query("all") == "true" {
		jobs, err := h.queueMgr.History()
		if err != nil {
			h.logger.Error("Failed to list job history", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, jobs)
		return
	}

	c.JSON(http.StatusOK, h.queueMgr.Jobs())
}

// GetDownload handles GET /api/v1/downloads/:id
func (h *DownloadHandler) GetDownload(c *gin.Context) {
	job, err := h.queueMgr.GetJob(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// DeleteDownload handles DELETE /api/v1/downloads/:id
func (h *DownloadHandler) DeleteDownload(c *gin.Context) {
	id := c.Param("id")

	if err := h.queueMgr.RemoveJob(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job removed"})
}

// ClearDownloads handles DELETE /api/v1/downloads
func (h *DownloadHandler) ClearDownloads(c *gin.Context) {
	if err := h.queueMgr.ClearQueue(); err != nil {
		h.logger.Error("Failed to clear queue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "queue cleared"})
}
