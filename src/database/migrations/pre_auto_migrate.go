package migrations

import (
	"fmt"

	"gorm.io/gorm"
)

// PrepareStore checks store settings the schema relies on before AutoMigrate runs.
// Error logs are removed together with their user, agent or exception through
// ON DELETE CASCADE, so sqlite must have foreign key enforcement switched on.
func PrepareStore(db *gorm.DB) error {
	if db.Dialector.Name() != "sqlite" {
		return nil
	}

	var enabled int
	if err := db.Raw("PRAGMA foreign_keys").Row().Scan(&enabled); err != nil {
		return fmt.Errorf("inspect sqlite foreign_keys pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign key enforcement is disabled; open the database with _foreign_keys=on")
	}

	return nil
}
