package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pc9350/Captionator-caption-generator-sub000/internal/api"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/cache"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/config"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/logger"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/media"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/provider"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/repository"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/service"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(logger.LoadFromEnv())
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	if cfg.Provider.APIKey == "" {
		appLogger.Fatal("OPENAI_API_KEY is not set")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	captionRepo := repository.NewCaptionRepository(db)

	// Initialize media archive storage (optional)
	var mediaStore storage.MediaStore
	if cfg.Storage.Enabled {
		store, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			appLogger.Fatalf("Failed to initialize storage: %v", err)
		}
		if s3Store, ok := store.(*storage.S3Store); ok {
			if err := s3Store.EnsureBucket(context.Background()); err != nil {
				appLogger.Fatalf("Failed to ensure storage bucket: %v", err)
			}
		}
		mediaStore = store
	}

	// Initialize provider client with retry policy
	caller := provider.NewHTTPCaller(&provider.ClientConfig{
		Model:   cfg.Provider.Model,
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Timeout: time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
	})
	retryPolicy := provider.DefaultRetryPolicy()
	if cfg.Provider.MaxRetries > 0 {
		retryPolicy.MaxRetries = cfg.Provider.MaxRetries
	}
	retryingClient := provider.NewRetryingClient(caller, retryPolicy)

	// Initialize pipeline components
	preparer := media.NewPreparer(cfg.Media.MaxPayloadBytes)
	responseCache := cache.NewResponseCache(
		time.Duration(cfg.Cache.TTLHours)*time.Hour, nil)

	generationService := service.NewGenerationService(
		preparer,
		responseCache,
		retryingClient,
		service.GenerationConfig{
			Model:        cfg.Provider.Model,
			MaxTokens:    cfg.Provider.MaxTokens,
			Temperature:  cfg.Provider.Temperature,
			CaptionCount: cfg.Generation.CaptionCount,
		},
	)

	// Setup router
	router := api.SetupRouter(generationService, captionRepo, mediaStore, &cfg.Server)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.Infof("Starting API server on port %d (mode=%s, model=%s)",
			cfg.Server.Port, cfg.Server.Mode, cfg.Provider.Model)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exited")
}
