// internal/pkg/logger/logger.go
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/caster-store/internal/config"
)

// Setup configures the standard logrus logger from config
func Setup(cfg config.LoggingConfig) {
	logrus.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "text") {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
