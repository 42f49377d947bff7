package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"errorcentral/src/database/migrations"
	"errorcentral/src/model"
)

// MainDB is the primary read/write database connection used by the application.
var MainDB *gorm.DB

// InitMainDB initializes the main (read/write) database connection and runs migrations.
// This should be called once at application startup (e.g. in main()).
func InitMainDB() error {
	config := GetConfig()

	db, err := Open(config.Driver, config.DatabaseURLMain, config)
	if err != nil {
		return err
	}

	// Assign to the global variable only after a successful connection.
	MainDB = db

	logrus.WithField("driver", config.Driver).Info("[database] MainDB connection established")

	if err := Migrate(MainDB); err != nil {
		return err
	}

	logrus.Info("[database] MainDB migrations completed")

	return nil
}

// Models lists every entity of the write-side schema, parents first.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Agent{},
		&model.AppException{},
		&model.ErrorLog{},
		&migrations.DataMigration{},
	}
}

// Migrate prepares the store, applies the schema and runs pending data migrations.
func Migrate(db *gorm.DB) error {
	if err := migrations.PrepareStore(db); err != nil {
		return fmt.Errorf("failed to prepare store: %w", err)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run schema migrations: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("failed to run data migrations: %w", err)
	}

	return nil
}
