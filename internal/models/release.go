package models

import (
	"fmt"
	"time"
)

// Release is one versioned APK artifact plus its metadata. Rows are never
// content-edited after creation: the only mutations are the soft-delete
// flag and the download counter.
type Release struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	Version      string    `gorm:"uniqueIndex;not null" json:"version"`
	ReleaseNotes string    `gorm:"type:text" json:"releaseNotes"`
	FileName     string    `gorm:"not null" json:"fileName"`
	// Storage coordinates are resolved through the download endpoint,
	// never handed to clients directly.
	StorageKey    string `gorm:"not null" json:"-"`
	StorageBucket string `gorm:"not null" json:"-"`

	FileSize   int64     `gorm:"not null" json:"fileSize"`
	UploadDate time.Time `gorm:"index" json:"uploadDate"`
	IsActive   bool      `gorm:"default:true;index" json:"isActive"`

	MinAndroidVersion string `gorm:"default:'5.0'" json:"minAndroidVersion"`
	TargetSdkVersion  int    `gorm:"default:33" json:"targetSdkVersion"`

	DownloadCount int64 `gorm:"default:0" json:"downloadCount"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// FileSizeMB formats the artifact size the way the admin panel expects.
func (r *Release) FileSizeMB() string {
	return fmt.Sprintf("%.2f", float64(r.FileSize)/1024/1024)
}

// DownloadPath is the API-relative download URL for this release.
func (r *Release) DownloadPath() string {
	return "/api/download/" + r.Version
}

// Summary is the client-facing projection of a Release. Storage
// coordinates stay server-side.
type Summary struct {
	Version           string    `json:"version"`
	ReleaseNotes      string    `json:"releaseNotes"`
	FileSize          int64     `json:"fileSize"`
	FileSizeMB        string    `json:"fileSizeMB"`
	UploadDate        time.Time `json:"uploadDate"`
	MinAndroidVersion string    `json:"minAndroidVersion"`
	TargetSdkVersion  int       `json:"targetSdkVersion"`
	DownloadCount     int64     `json:"downloadCount"`
	DownloadURL       string    `json:"downloadUrl"`
}

// Summarize builds the wire projection.
func (r *Release) Summarize() Summary {
	return Summary{
		Version:           r.Version,
		ReleaseNotes:      r.ReleaseNotes,
		FileSize:          r.FileSize,
		FileSizeMB:        r.FileSizeMB(),
		UploadDate:        r.UploadDate,
		MinAndroidVersion: r.MinAndroidVersion,
		TargetSdkVersion:  r.TargetSdkVersion,
		DownloadCount:     r.DownloadCount,
		DownloadURL:       r.DownloadPath(),
	}
}
