package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediavault/internal/domain"
)

// MediaHandler handles catalog HTTP requests
type MediaHandler struct {
	catalog domain.CatalogRepository
	logger  *zap.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(catalog domain.CatalogRepository, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// ListMedia handles GET /api/v1/media
func (h *MediaHandler) ListMedia(c *gin.Context) {
	media, err := h.catalog.ListAll()
	if err != nil {
		h.logger.Error("Failed to list media", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, media)
}

// SearchMedia handles POST /api/v1/media/search
func (h *MediaHandler) SearchMedia(c *gin.Context) {
	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.catalog.Search(req)
	if err != nil {
		h.logger.Error("Failed to search media", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// SuggestAuthors handles GET /api/v1/media/suggest/authors
func (h *MediaHandler) SuggestAuthors(c *gin.Context) {
	h.suggest(c, h.catalog.SuggestAuthors)
}

// SuggestPlatforms handles GET /api/v1/media/suggest/platforms
func (h *MediaHandler) SuggestPlatforms(c *gin.Context) {
	h.suggest(c, h.catalog.SuggestPlatforms)
}

// SuggestTags handles GET /api/v1/media/suggest/tags
func (h *MediaHandler) SuggestTags(c *gin.Context) {
	h.suggest(c, h.catalog.SuggestTags)
}

func (h *MediaHandler) suggest(c *gin.Context, fn func(string) ([]string, error)) {
	suggestions, err := fn(c.Query("q"))
	if err != nil {
		h.logger.Error("Failed to fetch suggestions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
