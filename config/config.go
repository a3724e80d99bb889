package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

const DefaultDatabasePath = "library.db"

type (
	Config struct {
		Database
		Log
	}

	Database struct {
		Path        string
		StrictLoans bool // Re-check availability inside the loan transaction
	}
	Log struct {
		Level  string // debug, info, warn, error
		Format string // text or json
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("strict_loans", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	return &Config{
		Database: Database{
			Path:        v.GetString("DATABASE_PATH"),
			StrictLoans: v.GetBool("STRICT_LOANS"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

// NewLogger builds the process logger from the Log section, writing to w.
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(l.Level)}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
