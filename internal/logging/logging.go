// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Config controls basic logger behaviour
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output io.Writer
}

// Setup applies cfg to the standard logrus logger. Unknown levels fall back
// to info and are reported once the logger is configured.
func Setup(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}

	level, err := ParseLevel(cfg.Level)
	log.SetLevel(level)
	if err != nil {
		log.Warnf("[Logging] %v, using %s", err, level)
	}
}

// FromEnv builds a Config from LOG_LEVEL and LOG_FORMAT, with fallback as
// the level when LOG_LEVEL is unset
func FromEnv(fallback string) Config {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = fallback
	}
	return Config{Level: level, Format: os.Getenv("LOG_FORMAT")}
}

// ParseLevel is logrus.ParseLevel with an info default for empty input
func ParseLevel(s string) (log.Level, error) {
	if strings.TrimSpace(s) == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return log.InfoLevel, err
	}
	return level, nil
}
