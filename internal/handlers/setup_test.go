package handlers_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/levoseto/zodiac-app/internal/config"
	"github.com/levoseto/zodiac-app/internal/database"
	"github.com/levoseto/zodiac-app/internal/middleware"
	"github.com/levoseto/zodiac-app/internal/models"
	"github.com/levoseto/zodiac-app/internal/routes"
	"github.com/levoseto/zodiac-app/internal/storage"
)

// SetupTestDB initializes an in-memory SQLite DB for testing
func SetupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Release{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	database.DB = db

	config.AppConfig = &config.Config{
		StorageBackend:        "local",
		LocalStorageDir:       t.TempDir(),
		PresignExpirySeconds:  900,
		MaxUploadBytes:        200 * 1024 * 1024,
		DirectUploadThreshold: 50 * 1024 * 1024,
	}

	local, err := storage.NewLocalStore(config.AppConfig.LocalStorageDir)
	if err != nil {
		t.Fatalf("failed to init local storage: %v", err)
	}
	storage.Blobs = local
}

// newTestRouter wires the real routes and boundary middleware, without
// rate limiting.
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandlerMiddleware())
	api := r.Group("/api")
	routes.RegisterVersionRoutes(api)
	routes.RegisterUploadRoutes(api)
	routes.RegisterSystemRoutes(api)
	return r
}

// seedRelease inserts an active release row with a matching blob.
func seedRelease(t *testing.T, version string, size int64) *models.Release {
	t.Helper()
	key := storage.KeyFor(version, "zodiac-app-v"+version+".apk")
	payload := make([]byte, size)
	if err := storage.Blobs.Put(context.Background(), key, bytes.NewReader(payload), size,
		"application/vnd.android.package-archive"); err != nil {
		t.Fatalf("failed to seed blob: %v", err)
	}

	r := &models.Release{
		Version:           version,
		FileName:          "zodiac-app-v" + version + ".apk",
		StorageKey:        key,
		StorageBucket:     storage.Blobs.Bucket(),
		FileSize:          size,
		UploadDate:        time.Now(),
		IsActive:          true,
		MinAndroidVersion: "5.0",
		TargetSdkVersion:  33,
	}
	if err := database.DB.Create(r).Error; err != nil {
		t.Fatalf("failed to seed release: %v", err)
	}
	return r
}
