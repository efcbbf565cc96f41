package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/levoseto/zodiac-app/internal/config"
	"github.com/levoseto/zodiac-app/internal/database"
	"github.com/levoseto/zodiac-app/internal/models"
	"github.com/levoseto/zodiac-app/internal/storage"
	"github.com/levoseto/zodiac-app/internal/store"
)

func setupServices(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Release{}))
	database.DB = db

	config.AppConfig = &config.Config{
		StorageBackend:        "local",
		LocalStorageDir:       t.TempDir(),
		PresignExpirySeconds:  900,
		MaxUploadBytes:        200 * 1024 * 1024,
		DirectUploadThreshold: 50 * 1024 * 1024,
	}

	local, err := storage.NewLocalStore(config.AppConfig.LocalStorageDir)
	assert.NoError(t, err)
	storage.Blobs = local
}

func publish(t *testing.T, version string) *models.Release {
	t.Helper()
	payload := []byte("apk-bytes")
	release, err := DirectUpload(context.Background(), DirectUploadInput{
		Version:     version,
		FileName:    "app.apk",
		ContentType: APKContentType,
		Size:        int64(len(payload)),
	}, bytes.NewReader(payload))
	assert.NoError(t, err)
	return release
}

// failingDeleteStore refuses deletes to simulate an unreachable backend.
type failingDeleteStore struct {
	storage.BlobStore
}

func (f failingDeleteStore) Delete(ctx context.Context, key string) error {
	return errors.New("backend unreachable")
}

func TestRetireProceedsWhenBlobDeleteFails(t *testing.T) {
	setupServices(t)
	publish(t, "1.0.0")
	storage.Blobs = failingDeleteStore{storage.Blobs}

	// The storage failure is logged and swallowed; the soft delete lands
	assert.NoError(t, Retire(context.Background(), "1.0.0"))

	r, err := store.NewReleaseStore(database.DB).FindByVersion("1.0.0")
	assert.NoError(t, err)
	assert.False(t, r.IsActive)
}

func TestRetireUnknownVersion(t *testing.T) {
	setupServices(t)
	err := Retire(context.Background(), "9.9.9")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDirectUploadCancelledCreatesNoRow(t *testing.T) {
	setupServices(t)

	ctx, cancel := context.WithCancel(context.Background())

	payload := bytes.Repeat([]byte("x"), 1<<20)
	src := io.MultiReader(
		bytes.NewReader(payload[:1024]),
		cancellingReader{cancel: cancel},
		bytes.NewReader(payload[1024:]),
	)

	_, err := DirectUpload(ctx, DirectUploadInput{
		Version:     "1.0.0",
		FileName:    "app.apk",
		ContentType: APKContentType,
		Size:        int64(len(payload)),
	}, src)
	assert.Error(t, err)

	// No partial release row and no visible blob
	_, err = store.NewReleaseStore(database.DB).FindByVersion("1.0.0")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = storage.Blobs.Head(context.Background(), storage.KeyFor("1.0.0", "app.apk"))
	assert.ErrorIs(t, err, storage.ErrNotExist)
}

func TestConfirmUploadUsesStoreByteCount(t *testing.T) {
	setupServices(t)

	key := storage.KeyFor("2.0.0", "app.apk")
	payload := bytes.Repeat([]byte("y"), 2048)
	assert.NoError(t, storage.Blobs.Put(context.Background(), key,
		bytes.NewReader(payload), int64(len(payload)), APKContentType))

	release, err := ConfirmUpload(context.Background(), ConfirmUploadInput{
		Version:  "2.0.0",
		Key:      key,
		FileName: "app.apk",
		FileSize: 999999, // client's claim loses to the store's count
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(2048), release.FileSize)
	assert.Equal(t, "5.0", release.MinAndroidVersion)
	assert.Equal(t, 33, release.TargetSdkVersion)
	assert.WithinDuration(t, time.Now(), release.UploadDate, time.Minute)
}

type cancellingReader struct {
	cancel context.CancelFunc
}

func (c cancellingReader) Read(p []byte) (int, error) {
	c.cancel()
	return 0, io.EOF
}
