package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/levoseto/zodiac-app/internal/database"
	"github.com/levoseto/zodiac-app/internal/storage"
	"github.com/levoseto/zodiac-app/internal/store"
	apperrors "github.com/levoseto/zodiac-app/pkg/errors"
	"github.com/levoseto/zodiac-app/pkg/logger"
)

// s3FreeTierBytes is the AWS free-tier storage allowance the stats
// endpoint reports usage against.
const s3FreeTierBytes = int64(5) * 1024 * 1024 * 1024

// HealthCheck reports liveness plus dependency status.
func HealthCheck(c *gin.Context) {
	dbStatus := "ok"
	if database.DB == nil {
		dbStatus = "not connected"
	} else if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "error"
	}

	redisStatus := "not configured"
	if database.Redis != nil {
		redisStatus = "ok"
		if _, err := database.Redis.Ping(context.Background()).Result(); err != nil {
			redisStatus = "error"
		}
	}

	storageBackend := "not configured"
	if storage.Blobs != nil {
		storageBackend = storage.Blobs.Bucket()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Zodiac updater API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  storageBackend,
		},
	})
}

// StorageStatus verifies the blob backend is reachable and returns its
// config summary.
func StorageStatus(c *gin.Context) {
	if storage.Blobs == nil {
		failApp(c, apperrors.Unavailable("Storage backend not configured"))
		return
	}

	status, err := storage.Blobs.Status(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("Storage status check failed")
		failApp(c, apperrors.Unavailable("Storage backend unreachable or misconfigured"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Storage configured correctly",
		"config":  status,
	})
}

// GetStats aggregates release counts and sizes, including usage against
// the S3 free tier the deployment runs on.
func GetStats(c *gin.Context) {
	stats, err := store.NewReleaseStore(database.DB).Stats()
	if err != nil {
		failFromError(c, err)
		return
	}

	usedPct := float64(stats.TotalSize) / float64(s3FreeTierBytes) * 100
	if usedPct > 100 {
		usedPct = 100
	}
	remainingGB := 5 - float64(stats.TotalSize)/1024/1024/1024
	if remainingGB < 0 {
		remainingGB = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"totalVersions":  stats.TotalVersions,
			"totalSizeBytes": stats.TotalSize,
			"totalSizeMB":    fmt.Sprintf("%.2f", float64(stats.TotalSize)/1024/1024),
			"totalSizeGB":    fmt.Sprintf("%.3f", float64(stats.TotalSize)/1024/1024/1024),
			"averageSizeMB":  fmt.Sprintf("%.2f", float64(stats.AverageSize)/1024/1024),
			"totalDownloads": stats.TotalDownloads,
			"freeTier": gin.H{
				"limitGB":        "5.0",
				"usedPercentage": fmt.Sprintf("%.2f", usedPct),
				"remainingGB":    fmt.Sprintf("%.3f", remainingGB),
			},
		},
	})
}
