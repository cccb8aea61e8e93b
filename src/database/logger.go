package database

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// SetupLogger applies LOG_LEVEL and LOG_FORMAT to the standard logrus logger.
func SetupLogger(config Config) {
	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		level = logrus.DebugLevel // fallback seguro
	}
	logrus.SetLevel(level)

	if strings.EqualFold(config.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}
