package services

import (
	"context"
	"errors"
	"io"

	"github.com/levoseto/zodiac-app/internal/database"
	"github.com/levoseto/zodiac-app/internal/storage"
	"github.com/levoseto/zodiac-app/internal/store"
	"github.com/levoseto/zodiac-app/pkg/logger"
)

// DownloadResolution is the result of resolving a version to a retrievable
// artifact. Exactly one of RedirectURL / Body is populated: S3-style
// backends redirect to a public URL, the local backend streams bytes.
type DownloadResolution struct {
	FileName    string
	FileSize    int64
	RedirectURL string
	Body        io.ReadCloser
}

// ResolveDownload looks up an active release, verifies its blob still
// exists (a point-in-time check), bumps the download counter and returns a
// locator. A release row whose blob has gone missing resolves to NotFound;
// the divergence is logged rather than hidden.
func ResolveDownload(ctx context.Context, version string) (*DownloadResolution, error) {
	releases := store.NewReleaseStore(database.DB)

	release, err := releases.FindByVersion(version)
	if err != nil {
		return nil, err
	}
	if !release.IsActive {
		return nil, store.ErrNotFound
	}

	if _, err := storage.Blobs.Head(ctx, release.StorageKey); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			logger.Error().
				Str("version", version).
				Str("key", release.StorageKey).
				Msg("Release row exists but blob is missing from storage")
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if err := releases.IncrementDownloadCount(version); err != nil {
		// The artifact is still servable; losing one count beats failing
		// the download.
		logger.Warn().Err(err).Str("version", version).Msg("Failed to increment download count")
	}

	if url := storage.Blobs.PublicURL(release.StorageKey); url != "" {
		return &DownloadResolution{
			FileName:    release.FileName,
			FileSize:    release.FileSize,
			RedirectURL: url,
		}, nil
	}

	body, size, err := storage.Blobs.Open(ctx, release.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &DownloadResolution{
		FileName: release.FileName,
		FileSize: size,
		Body:     body,
	}, nil
}
