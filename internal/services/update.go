package services

import (
	"errors"
	"time"

	"github.com/levoseto/zodiac-app/internal/database"
	"github.com/levoseto/zodiac-app/internal/models"
	"github.com/levoseto/zodiac-app/internal/store"
	"github.com/levoseto/zodiac-app/pkg/semver"
)

const latestCacheTTL = time.Minute

// Comparison is the update-check payload handed to the mobile client.
// Release details are only populated when an update actually exists; a
// client on the latest version never sees the current release's data here.
type Comparison struct {
	HasUpdate      bool    `json:"hasUpdate"`
	CurrentVersion string  `json:"currentVersion"`
	LatestVersion  string  `json:"latestVersion,omitempty"`
	ReleaseNotes   *string `json:"releaseNotes"`
	DownloadURL    *string `json:"downloadUrl"`
	FileSize       *int64  `json:"fileSize"`
	FileSizeMB     *string `json:"fileSizeMB"`
	Message        string  `json:"message,omitempty"`
}

// CheckForUpdates compares the client's version against the newest active
// release. No active release is a normal "no update" answer, not an error.
func CheckForUpdates(clientVersion string) (*Comparison, error) {
	if !semver.IsValid(clientVersion) {
		return nil, ErrInvalidVersion
	}

	latest, err := LatestRelease()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &Comparison{
				HasUpdate:      false,
				CurrentVersion: clientVersion,
				Message:        "No versions available",
			}, nil
		}
		return nil, err
	}

	cmp := &Comparison{
		HasUpdate:      semver.IsNewer(latest.Version, clientVersion),
		CurrentVersion: clientVersion,
		LatestVersion:  latest.Version,
	}
	if cmp.HasUpdate {
		notes := latest.ReleaseNotes
		url := latest.DownloadPath()
		size := latest.FileSize
		sizeMB := latest.FileSizeMB()
		cmp.ReleaseNotes = &notes
		cmp.DownloadURL = &url
		cmp.FileSize = &size
		cmp.FileSizeMB = &sizeMB
	}
	return cmp, nil
}

// LatestRelease returns the newest active release, going through the
// optional redis cache first. Any cache error is treated as a miss.
func LatestRelease() (*models.Release, error) {
	var cached models.Release
	if err := database.CacheGet(latestCacheKey, &cached); err == nil && cached.Version != "" {
		return &cached, nil
	}

	latest, err := store.NewReleaseStore(database.DB).FindLatest()
	if err != nil {
		return nil, err
	}

	database.CacheSet(latestCacheKey, latest, latestCacheTTL)
	return latest, nil
}
