package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brokerledger/src/database/migrations"
)

// MainDB is the primary read/write database connection used by the application.
var MainDB *gorm.DB

// InitMainDB initializes the main (read/write) database connection and runs migrations.
// This should be called once at application startup (e.g. in main()).
func InitMainDB() error {
	config := GetConfig()
	db, err := Open(config.Driver, config.DatabaseURLMain, config.GormLogLevel, config.MaxOpenConns)
	if err != nil {
		return err
	}

	logrus.WithField("driver", config.Driver).Info("[database] MainDB connection established")

	if err := Migrate(db); err != nil {
		return err
	}

	// Assign to the global variable only after the schema is usable.
	MainDB = db

	logrus.Info("[database] MainDB migrations completed")

	return nil
}

// Migrate brings the schema up to date, seeds the fixed enumerations and verifies them.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(migrations.Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("failed to run data migrations: %w", err)
	}

	if err := migrations.VerifyTransactionTypes(db); err != nil {
		return fmt.Errorf("startup check: %w", err)
	}

	return nil
}
