package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GabrielHeyne/planity-backend/internal/api"
	"github.com/GabrielHeyne/planity-backend/internal/api/handlers"
	"github.com/GabrielHeyne/planity-backend/internal/cache"
	"github.com/GabrielHeyne/planity-backend/internal/config"
	"github.com/GabrielHeyne/planity-backend/internal/service"
	"github.com/GabrielHeyne/planity-backend/internal/storage"
	"github.com/GabrielHeyne/planity-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize result cache (noop when disabled)
	resultCache, err := cache.NewResultCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("result cache unavailable, continuing without")
		resultCache = cache.NewNoopResultCache()
	}

	// Object storage is optional; without it the cloud loading endpoint
	// reports unavailable but uploads still work.
	var store storage.ObjectStorage
	if cfg.Storage.Endpoint != "" {
		s3, err := storage.NewS3Client(cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("object storage unavailable")
		} else {
			store = s3
		}
	}

	planningService := service.NewPlanningService(resultCache, cfg.Pipeline.WorkerCount)
	planningHandler := handlers.NewPlanningHandler(planningService, store)

	router := api.NewRouter(planningHandler, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
