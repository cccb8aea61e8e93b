package database

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"debug"` // Expected to hold values like "debug", "info", "warn", "error"
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"` // Expected to hold values like "json" or "text"

	Driver              string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabaseURLMain     string `envconfig:"DATABASE_URL_MAIN" default:"file:ledger.db?_busy_timeout=5000&_foreign_keys=on"`
	DatabaseURLReadOnly string `envconfig:"DATABASE_URL_READONLY"` // empty: reads go to the main database
	GormLogLevel        int    `envconfig:"GORM_LOG_LEVEL" default:"2"`
	MaxOpenConns        int    `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
