package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	gormlogger "gorm.io/gorm/logger"
)

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// New builds a logger writing to w in the given format ("json" or "text").
func New(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: true,
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		// text and console both render key=value pairs for development
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("service", "haven")
}

// Init initializes the global slog logger with the specified format and level
func Init(format, level string) {
	slog.SetDefault(New(os.Stdout, format, level))
}

// GormLevel picks the GORM log mode matching the application level. SQL
// statements are only logged at debug.
func GormLevel(level string) gormlogger.LogLevel {
	switch ParseLevel(level) {
	case slog.LevelDebug:
		return gormlogger.Info
	case slog.LevelInfo, slog.LevelWarn:
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}
