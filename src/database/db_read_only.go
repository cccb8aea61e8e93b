package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brokerledger/src/model"
)

// ReadOnlyDB serves statements and position listings. The database user for this
// connection should have SELECT-only permissions. Nil when no replica is configured.
var ReadOnlyDB *gorm.DB

// InitReadOnlyDB connects to DATABASE_URL_READONLY when set.
// It does not run any migrations and should only be used for reading data.
func InitReadOnlyDB() error {
	config := GetConfig()
	if config.DatabaseURLReadOnly == "" {
		logrus.Info("[ReadOnlyDB] not configured, reads use MainDB")
		return nil
	}

	db, err := Open(config.Driver, config.DatabaseURLReadOnly, config.GormLogLevel, config.MaxOpenConns)
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

	var count int64
	if err := db.Model(&model.Transaction{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to access transactions on ReadOnlyDB: %w", err)
	}

	logrus.WithFields(map[string]interface{}{"count": count}).Info("[ReadOnlyDB] transactions reachable")

	ReadOnlyDB = db

	return nil
}

// ReadDB returns the replica when configured, the main database otherwise.
func ReadDB() *gorm.DB {
	if ReadOnlyDB != nil {
		return ReadOnlyDB
	}
	return MainDB
}
