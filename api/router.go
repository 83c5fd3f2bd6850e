package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/dwhelper-go/api/handlers"
	"github.com/yourusername/dwhelper-go/api/middleware"
	"github.com/yourusername/dwhelper-go/internal/app"
	"github.com/yourusername/dwhelper-go/internal/domain"
	"go.uber.org/zap"
)

// RouterConfig holds what the router needs besides the session
type RouterConfig struct {
	DefaultFolder string
	LogsDir       string
	Chain         []domain.HandlerKind
}

// SetupRouter sets up the HTTP router
func SetupRouter(session *app.Session, config RouterConfig, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(config.Chain, session.HistoryEnabled())
	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		resolveHandler := handlers.NewResolveHandler(session, config.DefaultFolder, log)
		v1.POST("/resolve", resolveHandler.Resolve)

		resolutions := v1.Group("/resolutions")
		{
			resolutions.GET("", resolveHandler.ListResolutions)
			resolutions.GET("/stats", resolveHandler.GetStats)
			resolutions.GET("/:id", resolveHandler.GetResolution)
		}

		logHandler := handlers.NewLogHandler(config.LogsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/dates", logHandler.GetDates)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
