package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/levoseto/zodiac-app/internal/database"
	"github.com/levoseto/zodiac-app/internal/models"
	"github.com/levoseto/zodiac-app/internal/services"
	"github.com/levoseto/zodiac-app/internal/store"
)

// GetLatestVersion returns the newest active release.
func GetLatestVersion(c *gin.Context) {
	latest, err := services.LatestRelease()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "No versions available")
			return
		}
		failFromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    latest.Summarize(),
	})
}

// CompareVersion tells a client whether a newer release exists than the
// version it reports.
func CompareVersion(c *gin.Context) {
	cmp, err := services.CheckForUpdates(c.Param("currentVersion"))
	if err != nil {
		failFromError(c, err)
		return
	}

	out := struct {
		Success bool `json:"success"`
		*services.Comparison
	}{true, cmp}
	c.JSON(http.StatusOK, out)
}

// ListVersions returns all active releases, newest first. Storage keys and
// buckets never appear in the payload.
func ListVersions(c *gin.Context) {
	releases, err := store.NewReleaseStore(database.DB).List()
	if err != nil {
		failFromError(c, err)
		return
	}

	summaries := make([]models.Summary, 0, len(releases))
	var totalSize int64
	for _, r := range releases {
		summaries = append(summaries, r.Summarize())
		totalSize += r.FileSize
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       len(summaries),
		"totalSizeMB": fmt.Sprintf("%.2f", float64(totalSize)/1024/1024),
		"data":        summaries,
	})
}

// DeleteVersion retires a release (soft delete) and best-effort removes its
// blob.
func DeleteVersion(c *gin.Context) {
	if err := services.Retire(c.Request.Context(), c.Param("version")); err != nil {
		failFromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Version deactivated successfully",
	})
}
