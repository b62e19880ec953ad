// Package logger builds the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config holds logger configuration.
type Config struct {
	Writer      io.Writer
	Level       string
	Format      string
	Environment string
}

// New creates a logger. Without an explicit format, production logs JSON and everything else logs text.
func New(cfg Config) *logrus.Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}

	format := strings.ToLower(cfg.Format)
	if format == "" {
		if cfg.Environment == "production" {
			format = FormatJSON
		} else {
			format = FormatText
		}
	}

	log := logrus.New()
	log.SetOutput(cfg.Writer)
	log.SetLevel(ParseLevel(cfg.Level))

	if format == FormatJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}

// ParseLevel converts a string to a logrus level, defaulting to info when it is not recognised.
func ParseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
