package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pc9350/Captionator-caption-generator-sub000/internal/api/handler"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/api/middleware"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/config"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/repository"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/service"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/storage"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	generation *service.GenerationService,
	repo *repository.CaptionRepository,
	store storage.MediaStore,
	cfg *config.ServerConfig,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	captionHandler := handler.NewCaptionHandler(generation, repo, store)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		captions := v1.Group("/captions")
		{
			captions.POST("/generate", captionHandler.Generate)
			captions.POST("/regenerate", captionHandler.Regenerate)

			captions.GET("/saved", captionHandler.ListSaved)
			captions.POST("/saved", captionHandler.SaveCaption)
			captions.DELETE("/saved/:id", captionHandler.DeleteSaved)

			captions.GET("/history", captionHandler.History)
		}
	}

	return r
}
