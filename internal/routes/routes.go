package routes

import (
	"interview_backend/internal/handlers"
	"interview_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the HTTP API under /api/v1 plus the health check.
func RegisterRoutes(ginRouter *gin.Engine, appHandlers *handlers.AppHandlers) {
	ginRouter.GET("/health", appHandlers.HealthHandler.Health)

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.ProfileHandler.RegisterRoutes(api)
		appHandlers.MatchingHandler.RegisterRoutes(api)
	}

	logger.Info("HTTP routes registered", "count", len(ginRouter.Routes()))
}
