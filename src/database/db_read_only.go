package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"errorcentral/src/model"
)

// ReadOnlyDB serves the list and summary queries. The database user for this
// connection should have SELECT-only permissions.
var ReadOnlyDB *gorm.DB

// InitReadOnlyDB initializes the read-only database connection.
// When no read-only URL is configured the main connection is reused.
// It does not run any migrations and must be called after InitMainDB.
func InitReadOnlyDB() error {
	config := GetConfig()
	if config.DatabaseURLReadOnly == "" {
		ReadOnlyDB = MainDB
		logrus.Info("[ReadOnlyDB] no read-only URL configured, reusing MainDB")
		return nil
	}

	db, err := Open(config.Driver, config.DatabaseURLReadOnly, config)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from ReadOnlyDB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping ReadOnlyDB: %w", err)
	}

	// The replica must already carry the schema.
	var count int64
	if err := db.Model(&model.ErrorLog{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to access error_logs on ReadOnlyDB: %w", err)
	}

	logrus.WithField("count", count).Info("[ReadOnlyDB] error_logs reachable")

	ReadOnlyDB = db

	return nil
}

// Reader returns the connection used for read-only queries.
func Reader() *gorm.DB {
	if ReadOnlyDB != nil {
		return ReadOnlyDB
	}
	return MainDB
}
