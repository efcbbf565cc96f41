package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/levoseto/zodiac-app/internal/config"
	"github.com/levoseto/zodiac-app/internal/storage"
)

// unreachableStore reports a backend whose health check fails.
type unreachableStore struct {
	storage.BlobStore
}

func (unreachableStore) Status(ctx context.Context) (*storage.BackendStatus, error) {
	return nil, errors.New("head bucket: connection refused")
}

func TestHealthCheck(t *testing.T) {
	SetupTestDB(t)
	r := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Checks  struct {
			Database string `json:"database"`
			Redis    string `json:"redis"`
			Storage  string `json:"storage"`
		} `json:"checks"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "ok", resp.Checks.Database)
	assert.Equal(t, "not configured", resp.Checks.Redis)
	assert.NotEmpty(t, resp.Checks.Storage)
}

func TestStorageStatus(t *testing.T) {
	SetupTestDB(t)
	config.AppConfig.MaxUploadBytes = 50 * 1024 * 1024
	r := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/storage/status", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Config  struct {
			Backend     string `json:"backend"`
			Bucket      string `json:"bucket"`
			MaxFileSize string `json:"maxFileSize"`
		} `json:"config"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "local", resp.Config.Backend)
	assert.NotEmpty(t, resp.Config.Bucket)
	assert.Equal(t, "50MB", resp.Config.MaxFileSize)
}

func TestStorageStatusUnavailable(t *testing.T) {
	SetupTestDB(t)
	storage.Blobs = unreachableStore{BlobStore: storage.Blobs}
	r := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/storage/status", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "unreachable")
}

func TestGetStats(t *testing.T) {
	SetupTestDB(t)
	r := newTestRouter()

	seedRelease(t, "1.0.0", 1024*1024)
	seedRelease(t, "2.0.0", 3*1024*1024)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/stats", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Stats   struct {
			TotalVersions  int64  `json:"totalVersions"`
			TotalSizeBytes int64  `json:"totalSizeBytes"`
			TotalSizeMB    string `json:"totalSizeMB"`
			AverageSizeMB  string `json:"averageSizeMB"`
		} `json:"stats"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(2), resp.Stats.TotalVersions)
	assert.Equal(t, int64(4*1024*1024), resp.Stats.TotalSizeBytes)
	assert.Equal(t, "4.00", resp.Stats.TotalSizeMB)
	assert.Equal(t, "2.00", resp.Stats.AverageSizeMB)
}
