// Package store implements the release metadata store on GORM. Version
// ordering is semver precedence, which SQL cannot collate, so latest/list
// queries fetch the active rows and order them in Go.
package store

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/levoseto/zodiac-app/internal/models"
	"github.com/levoseto/zodiac-app/pkg/semver"
)

var (
	// ErrDuplicateVersion signals the unique-version constraint fired.
	ErrDuplicateVersion = errors.New("store: version already exists")
	// ErrNotFound signals no matching release row.
	ErrNotFound = errors.New("store: release not found")
)

// ReleaseStore wraps the shared *gorm.DB handle.
type ReleaseStore struct {
	db *gorm.DB
}

func NewReleaseStore(db *gorm.DB) *ReleaseStore {
	return &ReleaseStore{db: db}
}

// Create inserts a new release. Two concurrent creates for the same version
// race on the unique index; the loser gets ErrDuplicateVersion. No
// application-level locking.
func (s *ReleaseStore) Create(r *models.Release) error {
	if err := s.db.Create(r).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateVersion
		}
		return err
	}
	return nil
}

// FindLatest returns the active release with the greatest version,
// ties broken by most recent upload date.
func (s *ReleaseStore) FindLatest() (*models.Release, error) {
	releases, err := s.activeReleases()
	if err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, ErrNotFound
	}
	sortReleases(releases)
	return &releases[0], nil
}

// List returns all active releases, newest version first.
func (s *ReleaseStore) List() ([]models.Release, error) {
	releases, err := s.activeReleases()
	if err != nil {
		return nil, err
	}
	sortReleases(releases)
	return releases, nil
}

// FindByVersion returns the release row for version regardless of its
// active flag; retired rows stay visible to admin operations.
func (s *ReleaseStore) FindByVersion(version string) (*models.Release, error) {
	var r models.Release
	err := s.db.Where("version = ?", version).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// Deactivate soft-deletes a release. Idempotent: deactivating an already
// inactive release succeeds.
func (s *ReleaseStore) Deactivate(version string) error {
	res := s.db.Model(&models.Release{}).Where("version = ?", version).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementDownloadCount bumps the counter in a single UPDATE so
// concurrent downloads never lose increments.
func (s *ReleaseStore) IncrementDownloadCount(version string) error {
	res := s.db.Model(&models.Release{}).
		Where("version = ?", version).
		Update("download_count", gorm.Expr("download_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates over active releases.
type Stats struct {
	TotalVersions  int64
	TotalSize      int64
	AverageSize    int64
	TotalDownloads int64
}

func (s *ReleaseStore) Stats() (*Stats, error) {
	var out Stats
	row := s.db.Model(&models.Release{}).
		Where("is_active = ?", true).
		Select("COUNT(*), COALESCE(SUM(file_size), 0), COALESCE(SUM(download_count), 0)").
		Row()
	if err := row.Scan(&out.TotalVersions, &out.TotalSize, &out.TotalDownloads); err != nil {
		return nil, err
	}
	if out.TotalVersions > 0 {
		out.AverageSize = out.TotalSize / out.TotalVersions
	}
	return &out, nil
}

func (s *ReleaseStore) activeReleases() ([]models.Release, error) {
	var releases []models.Release
	if err := s.db.Where("is_active = ?", true).Find(&releases).Error; err != nil {
		return nil, err
	}
	return releases, nil
}

// sortReleases orders by version descending, upload date descending.
func sortReleases(releases []models.Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		cmp := semver.Compare(releases[i].Version, releases[j].Version)
		if cmp != 0 {
			return cmp > 0
		}
		return releases[i].UploadDate.After(releases[j].UploadDate)
	})
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite (tests) and older postgres drivers surface raw constraint text
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
