// Package storage abstracts the APK blob store. The same contract has been
// served by local disk, S3 and Cloudinary-style hosts over the life of the
// project; the interface keeps the upload protocol independent of the
// provider and the concrete backend is chosen once at startup from config.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/levoseto/zodiac-app/internal/config"
)

var (
	// ErrNotExist is returned by Head/Open/Delete when the object is absent.
	ErrNotExist = errors.New("storage: object does not exist")
	// ErrPresignUnsupported is returned by backends that cannot issue
	// pre-signed URLs (local disk).
	ErrPresignUnsupported = errors.New("storage: presigned uploads not supported by this backend")
)

// PresignedUpload is a time-limited direct-write slot against the backend.
type PresignedUpload struct {
	URL         string
	Key         string
	Bucket      string
	ExpiresIn   int // seconds
	ContentType string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Size int64
}

// BackendStatus is the config summary surfaced by GET /api/storage/status.
type BackendStatus struct {
	Backend     string `json:"backend"`
	Bucket      string `json:"bucket"`
	Region      string `json:"region,omitempty"`
	MaxFileSize string `json:"maxFileSize"`
}

// maxFileSizeLabel renders the configured upload limit for status reports.
func maxFileSizeLabel() string {
	return fmt.Sprintf("%dMB", config.AppConfig.MaxUploadBytes/(1024*1024))
}

// BlobStore is the provider-neutral contract for APK binaries.
type BlobStore interface {
	// PresignPut issues a pre-signed write URL for key, valid for expiry.
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*PresignedUpload, error)
	// Put writes the full object server-side. Cancellation of ctx aborts
	// the write without leaving a visible object behind.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Head reports object existence and size.
	Head(ctx context.Context, key string) (*ObjectInfo, error)
	// Delete removes the object. Deleting an absent object is not an error.
	Delete(ctx context.Context, key string) error
	// PublicURL returns a directly fetchable URL for key, or "" when the
	// backend can only serve bytes through Open.
	PublicURL(key string) string
	// Open streams the object for backends without public URLs.
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	// Bucket names the container objects live in.
	Bucket() string
	// Status verifies the backend is reachable and correctly configured.
	Status(ctx context.Context) (*BackendStatus, error)
}

// Blobs is the process-wide store handle, constructed once at startup.
var Blobs BlobStore

// Init selects and constructs the backend named by STORAGE_BACKEND.
func Init() error {
	cfg := config.AppConfig
	switch cfg.StorageBackend {
	case "s3":
		s, err := NewS3Store(cfg)
		if err != nil {
			return fmt.Errorf("init s3 storage: %w", err)
		}
		Blobs = s
	case "local":
		s, err := NewLocalStore(cfg.LocalStorageDir)
		if err != nil {
			return fmt.Errorf("init local storage: %w", err)
		}
		Blobs = s
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	return nil
}

// KeyFor derives the canonical object key for a release artifact.
func KeyFor(version, fileName string) string {
	return fmt.Sprintf("apks/%s/%s", version, fileName)
}
