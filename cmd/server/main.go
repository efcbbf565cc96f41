package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/levoseto/zodiac-app/internal/config"
	"github.com/levoseto/zodiac-app/internal/database"
	"github.com/levoseto/zodiac-app/internal/middleware"
	"github.com/levoseto/zodiac-app/internal/migrations"
	"github.com/levoseto/zodiac-app/internal/models"
	"github.com/levoseto/zodiac-app/internal/routes"
	"github.com/levoseto/zodiac-app/internal/storage"
	"github.com/levoseto/zodiac-app/pkg/logger"
)

func main() {
	// 0. Load Config & Initialize Logger
	config.LoadConfig()

	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	logger.Info().Str("environment", env).Msg("Starting Zodiac updater API...")

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Connect Database & Cache
	database.Connect()
	database.InitRedis()

	if err := database.DB.AutoMigrate(&models.Release{}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate releases table")
	}
	if err := migrations.NewMigrator(database.DB).Run(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// 2. Init Blob Storage
	if err := storage.Init(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize blob storage")
	}
	logger.Info().
		Str("backend", config.AppConfig.StorageBackend).
		Str("bucket", storage.Blobs.Bucket()).
		Msg("Blob storage ready")

	// 3. Setup Router
	r := gin.New()

	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	api.Use(middleware.GeneralRateLimit())
	{
		routes.RegisterVersionRoutes(api)
		routes.RegisterSystemRoutes(api)

		uploads := api.Group("")
		uploads.Use(middleware.UploadRateLimit())
		routes.RegisterUploadRoutes(uploads)
	}

	// 4. Start Server with graceful shutdown
	port := config.AppConfig.Port
	if port == "" {
		port = "3000"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
		// Uploads stream for minutes; only the read headers phase is
		// tightly bounded.
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       12 * time.Minute,
		WriteTimeout:      12 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Str("env", env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
