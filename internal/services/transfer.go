package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/levoseto/zodiac-app/internal/config"
	"github.com/levoseto/zodiac-app/internal/database"
	"github.com/levoseto/zodiac-app/internal/models"
	"github.com/levoseto/zodiac-app/internal/storage"
	"github.com/levoseto/zodiac-app/internal/store"
	"github.com/levoseto/zodiac-app/pkg/logger"
	"github.com/levoseto/zodiac-app/pkg/semver"
)

// APKContentType is the only MIME type accepted for artifact payloads.
const APKContentType = "application/vnd.android.package-archive"

const maxReleaseNotesLen = 10000

var (
	ErrInvalidVersion   = errors.New("invalid semantic version")
	ErrInvalidMetadata  = errors.New("invalid release metadata")
	ErrUnsupportedMedia = errors.New("payload is not an APK")
	ErrPayloadTooLarge  = errors.New("payload exceeds upload limit")
	ErrBlobMissing      = errors.New("uploaded file not found in storage")
)

// latestCacheKey is the redis key for the cached latest release.
const latestCacheKey = "release:latest"

// RequestUploadSlot starts the direct-upload path: it validates the version
// and hands back a pre-signed write URL. No release row is created here;
// the version only becomes visible at ConfirmUpload. Two clients may both
// obtain a slot for the same version — the unique constraint at confirm
// time picks the single winner.
func RequestUploadSlot(ctx context.Context, version string, fileSize int64, fileName string) (*storage.PresignedUpload, error) {
	if !semver.IsValid(version) {
		return nil, ErrInvalidVersion
	}
	if fileSize <= 0 || fileName == "" {
		return nil, ErrInvalidMetadata
	}

	releases := store.NewReleaseStore(database.DB)
	if _, err := releases.FindByVersion(version); err == nil {
		return nil, store.ErrDuplicateVersion
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	key := storage.KeyFor(version, filepath.Base(fileName))
	expiry := time.Duration(config.AppConfig.PresignExpirySeconds) * time.Second

	slot, err := storage.Blobs.PresignPut(ctx, key, APKContentType, expiry)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("version", version).
		Str("key", key).
		Int64("fileSize", fileSize).
		Msg("Issued presigned upload slot")
	return slot, nil
}

// ConfirmUploadInput carries the metadata the client reports back after its
// direct PUT to the blob store succeeded.
type ConfirmUploadInput struct {
	Version           string
	Key               string
	Bucket            string
	FileSize          int64
	FileName          string
	ReleaseNotes      string
	MinAndroidVersion string
	TargetSdkVersion  int
}

// ConfirmUpload completes the direct-upload path: it verifies the blob is
// really there and creates the release row. This is the only point where
// the new version becomes visible. An abandoned confirm leaves an orphaned
// blob behind, which is tolerated rather than reconciled here.
func ConfirmUpload(ctx context.Context, in ConfirmUploadInput) (*models.Release, error) {
	if !semver.IsValid(in.Version) {
		return nil, ErrInvalidVersion
	}
	if err := validateMetadata(&in.ReleaseNotes, &in.MinAndroidVersion, &in.TargetSdkVersion); err != nil {
		return nil, err
	}
	if in.Key == "" || in.FileName == "" {
		return nil, ErrInvalidMetadata
	}

	info, err := storage.Blobs.Head(ctx, in.Key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, ErrBlobMissing
		}
		return nil, err
	}

	size := in.FileSize
	if info.Size > 0 {
		// The store's byte count is authoritative over the client's claim
		size = info.Size
	}

	bucket := in.Bucket
	if bucket == "" {
		bucket = storage.Blobs.Bucket()
	}

	release := &models.Release{
		Version:           in.Version,
		ReleaseNotes:      in.ReleaseNotes,
		FileName:          filepath.Base(in.FileName),
		StorageKey:        in.Key,
		StorageBucket:     bucket,
		FileSize:          size,
		UploadDate:        time.Now().UTC(),
		IsActive:          true,
		MinAndroidVersion: in.MinAndroidVersion,
		TargetSdkVersion:  in.TargetSdkVersion,
	}

	releases := store.NewReleaseStore(database.DB)
	if err := releases.Create(release); err != nil {
		return nil, err
	}

	database.CacheInvalidate(latestCacheKey)
	logger.Info().
		Str("version", in.Version).
		Str("key", in.Key).
		Int64("fileSize", size).
		Msg("Upload confirmed, release published")
	return release, nil
}

// DirectUploadInput is the metadata half of a traditional multipart upload.
type DirectUploadInput struct {
	Version           string
	ReleaseNotes      string
	MinAndroidVersion string
	TargetSdkVersion  int
	FileName          string
	ContentType       string
	Size              int64
}

// DirectUpload is the server-mediated fallback path: the payload streams
// through the API into the blob store and the release row is created only
// after the full write is durable. Cancelling ctx mid-stream aborts the
// write and creates no row.
func DirectUpload(ctx context.Context, in DirectUploadInput, body io.Reader) (*models.Release, error) {
	if !semver.IsValid(in.Version) {
		return nil, ErrInvalidVersion
	}
	if err := validateMetadata(&in.ReleaseNotes, &in.MinAndroidVersion, &in.TargetSdkVersion); err != nil {
		return nil, err
	}
	if !isAPKPayload(in.ContentType, in.FileName) {
		return nil, ErrUnsupportedMedia
	}
	if in.Size <= 0 {
		return nil, ErrInvalidMetadata
	}
	if in.Size > config.AppConfig.MaxUploadBytes {
		return nil, ErrPayloadTooLarge
	}

	releases := store.NewReleaseStore(database.DB)
	if _, err := releases.FindByVersion(in.Version); err == nil {
		return nil, store.ErrDuplicateVersion
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	fileName := filepath.Base(in.FileName)
	key := storage.KeyFor(in.Version, fileName)

	if err := storage.Blobs.Put(ctx, key, body, in.Size, APKContentType); err != nil {
		return nil, err
	}

	release := &models.Release{
		Version:           in.Version,
		ReleaseNotes:      in.ReleaseNotes,
		FileName:          fileName,
		StorageKey:        key,
		StorageBucket:     storage.Blobs.Bucket(),
		FileSize:          in.Size,
		UploadDate:        time.Now().UTC(),
		IsActive:          true,
		MinAndroidVersion: in.MinAndroidVersion,
		TargetSdkVersion:  in.TargetSdkVersion,
	}

	if err := releases.Create(release); err != nil {
		// A concurrent upload won the version race; its row may point at
		// the same key, so the blob is left alone.
		return nil, err
	}

	database.CacheInvalidate(latestCacheKey)
	logger.Info().
		Str("version", in.Version).
		Str("key", key).
		Int64("fileSize", in.Size).
		Msg("APK uploaded and release published")
	return release, nil
}

// Retire soft-deletes a release. The backing blob is deleted best-effort:
// a storage failure is logged and swallowed so the metadata flip always
// proceeds. A previously cached public URL may keep working until the
// provider purges it.
func Retire(ctx context.Context, version string) error {
	releases := store.NewReleaseStore(database.DB)
	release, err := releases.FindByVersion(version)
	if err != nil {
		return err
	}

	if err := storage.Blobs.Delete(ctx, release.StorageKey); err != nil {
		logger.Warn().
			Err(err).
			Str("version", version).
			Str("key", release.StorageKey).
			Msg("Failed to delete APK from storage, continuing with soft delete")
	}

	if err := releases.Deactivate(version); err != nil {
		return err
	}

	database.CacheInvalidate(latestCacheKey)
	logger.Info().Str("version", version).Msg("Release retired")
	return nil
}

func validateMetadata(notes, minAndroid *string, targetSdk *int) error {
	if len(*notes) > maxReleaseNotesLen {
		return ErrInvalidMetadata
	}
	if *minAndroid == "" {
		*minAndroid = "5.0"
	}
	if *targetSdk == 0 {
		*targetSdk = 33
	}
	if *targetSdk < 1 || *targetSdk > 50 {
		return ErrInvalidMetadata
	}
	return nil
}

func isAPKPayload(contentType, fileName string) bool {
	if contentType == APKContentType {
		return true
	}
	return strings.HasSuffix(strings.ToLower(fileName), ".apk")
}
