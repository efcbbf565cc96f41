package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// LocalStore keeps blobs on the server's disk. It is the development
// fallback from before the S3 migration and stays wired for self-hosted
// deployments; it cannot issue pre-signed URLs, so only the traditional
// upload path works against it.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("LOCAL_STORAGE_DIR not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root}, nil
}

func (l *LocalStore) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*PresignedUpload, error) {
	return nil, ErrPresignUnsupported
}

func (l *LocalStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	dest := l.path(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	// Write to a temp file and rename so a cancelled upload never leaves a
	// half-written object at the final key.
	tmp := filepath.Join(filepath.Dir(dest), "."+uuid.NewString()+".part")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(f, readerWithContext{ctx: ctx, r: body})
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp)
		if copyErr != nil {
			return copyErr
		}
		return closeErr
	}

	return os.Rename(tmp, dest)
}

func (l *LocalStore) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	info, err := os.Stat(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return &ObjectInfo{Size: info.Size()}, nil
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(l.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PublicURL is empty: local blobs are streamed through the API.
func (l *LocalStore) PublicURL(key string) string {
	return ""
}

func (l *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	f, err := os.Open(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrNotExist
		}
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func (l *LocalStore) Bucket() string {
	return l.root
}

func (l *LocalStore) Status(ctx context.Context) (*BackendStatus, error) {
	if _, err := os.Stat(l.root); err != nil {
		return nil, fmt.Errorf("storage dir %q unavailable: %w", l.root, err)
	}
	return &BackendStatus{
		Backend:     "local",
		Bucket:      l.root,
		MaxFileSize: maxFileSizeLabel(),
	}, nil
}

func (l *LocalStore) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

// readerWithContext aborts a copy between chunks once ctx is cancelled.
type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
