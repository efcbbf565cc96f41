package migrations

import "gorm.io/gorm"

// Migration001AddReleaseIndexes adds the covering index the latest/list
// queries rely on. AutoMigrate creates the single-column indexes from the
// model tags; this composite one only exists here.
func Migration001AddReleaseIndexes() Migration {
	return Migration{
		ID:   "001_add_release_indexes",
		Name: "Add composite index for active release queries",
		Up: func(db *gorm.DB) error {
			return db.Exec(
				`CREATE INDEX IF NOT EXISTS idx_releases_active_upload
				 ON releases (is_active, upload_date DESC)`,
			).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP INDEX IF EXISTS idx_releases_active_upload`).Error
		},
	}
}
