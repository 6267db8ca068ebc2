package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate brings the schema up to date for the given models. The uuid
// column defaults rely on pgcrypto's gen_random_uuid, so the extension
// is created first.
func Migrate(db *gorm.DB, models ...any) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error; err != nil {
		return fmt.Errorf("create pgcrypto extension: %w", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
