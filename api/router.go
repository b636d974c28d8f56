package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediavault/api/handlers"
	"github.com/yourusername/mediavault/api/middleware"
	"github.com/yourusername/mediavault/internal/app"
	"github.com/yourusername/mediavault/internal/domain"
	"github.com/yourusername/mediavault/internal/observability"
)

// SetupRouter sets up the HTTP router
func SetupRouter(
	queueMgr *app.QueueManager,
	catalog domain.CatalogRepository,
	queueWS *handlers.QueueWebSocketHandler,
	metrics *observability.Metrics,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(queueMgr)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		downloadHandler := handlers.NewDownloadHandler(queueMgr, log)
		downloads := v1.Group("/downloads")
		{
			downloads.POST("", downloadHandler.AddDownload)
			downloads.GET("", downloadHandler.ListDownloads)
			downloads.GET("/:id", downloadHandler.GetDownload)
			downloads.DELETE("/:id", downloadHandler.DeleteDownload)
			downloads.DELETE("", downloadHandler.ClearDownloads)
		}

		mediaHandler := handlers.NewMediaHandler(catalog, log)
		media := v1.Group("/media")
		{
			media.GET("", mediaHandler.ListMedia)
			media.POST("/search", mediaHandler.SearchMedia)
			media.GET("/suggest/authors", mediaHandler.SuggestAuthors)
			media.GET("/suggest/platforms", mediaHandler.SuggestPlatforms)
			media.GET("/suggest/tags", mediaHandler.SuggestTags)
		}

		v1.GET("/queue/ws", queueWS.HandleWebSocket)
	}

	return router
}
