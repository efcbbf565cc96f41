package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/levoseto/zodiac-app/internal/database"
	"github.com/levoseto/zodiac-app/internal/models"
)

func TestGetLatestVersion(t *testing.T) {
	SetupTestDB(t)
	r := newTestRouter()

	seedRelease(t, "1.2.0", 1024)
	seedRelease(t, "1.10.0", 2048)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/version/latest", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool           `json:"success"`
		Data    models.Summary `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.True(t, resp.Success)
	// 1.10.0 > 1.2.0 numerically, not lexicographically
	assert.Equal(t, "1.10.0", resp.Data.Version)
	assert.Equal(t, "/api/download/1.10.0", resp.Data.DownloadURL)
}

func TestGetLatestVersionEmpty(t *testing.T) {
	SetupTestDB(t)
	r := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/version/latest", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestCompareVersionHasUpdate(t *testing.T) {
	SetupTestDB(t)
	r := newTestRouter()

	seedRelease(t, "2.0.0", 1024)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/version/compare/1.0.0", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success       bool    `json:"success"`
		HasUpdate     bool    `json:"hasUpdate"`
		LatestVersion string  `json:"latestVersion"`
		ReleaseNotes  *string `json:"releaseNotes"`
		DownloadURL   *string `json:"downloadUrl"`
		FileSize      *int64  `json:"fileSize"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.True(t, resp.Success)
	assert.True(t, resp.HasUpdate)
	assert.Equal(t, "2.0.0", resp.LatestVersion)
	assert.NotNil(t, resp.DownloadURL)
	assert.NotNil(t, resp.FileSize)
}

func TestCompareVersionUpToDate(t *testing.T) {
	SetupTestDB(t)
	r := newTestRouter()

	seedRelease(t, "2.0.0", 1024)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/version/compare/2.0.0", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		HasUpdate    bool    `json:"hasUpdate"`
		ReleaseNotes *string `json:"releaseNotes"`
		DownloadURL  *string `json:"downloadUrl"`
		FileSize     *int64  `json:"fileSize"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.False(t, resp.HasUpdate)
	// No update means no release details, not the current release's data
	assert.Nil(t, resp.ReleaseNotes)
	assert.Nil(t, resp.DownloadURL)
	assert.Nil(t, resp.FileSize)
}

func TestCompareVersionPrereleaseBelowRelease(t *testing.T) {
	SetupTestDB(t)
	r := newTestRouter()

	seedRelease(t, "2.0.0", 1024)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/version/compare/2.0.0-beta", nil)
	r.ServeHTTP(w, req)

	var resp struct {
		HasUpdate bool `json:"hasUpdate"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.True(t, resp.HasUpdate)
}

func TestCompareVersionNoReleases(t *testing.T) {
	SetupTestDB(t)
	r := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/version/compare/1.0.0", nil)
	r.ServeHTTP(w, req)

	// No active releases is a normal "no update" answer, not an error
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success   bool   `json:"success"`
		HasUpdate bool   `json:"hasUpdate"`
		Message   string `json:"message"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.True(t, resp.Success)
	assert.False(t, resp.HasUpdate)
	assert.NotEmpty(t, resp.Message)
}

func TestCompareVersionMalformed(t *testing.T) {
	SetupTestDB(t)
	r := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/version/compare/v1.0", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListVersionsExcludesRetiredAndStorageKeys(t *testing.T) {
	SetupTestDB(t)
	r := newTestRouter()

	seedRelease(t, "1.0.0", 1024)
	retired := seedRelease(t, "2.0.0", 2048)
	database.DB.Model(&models.Release{}).Where("version = ?", retired.Version).Update("is_active", false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/versions", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool             `json:"success"`
		Count   int              `json:"count"`
		Data    []models.Summary `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "1.0.0", resp.Data[0].Version)

	// Blob locators never leak
	assert.NotContains(t, w.Body.String(), "storageKey")
	assert.NotContains(t, w.Body.String(), "apks/")
}

func TestDeleteVersion(t *testing.T) {
	SetupTestDB(t)
	r := newTestRouter()

	seedRelease(t, "1.0.0", 1024)
	seedRelease(t, "2.0.0", 1024)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/version/2.0.0", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// Latest falls back to the surviving release
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/version/latest", nil)
	r.ServeHTTP(w, req)

	var resp struct {
		Data models.Summary `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "1.0.0", resp.Data.Version)
}

func TestDeleteVersionMissing(t *testing.T) {
	SetupTestDB(t)
	r := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/version/9.9.9", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
