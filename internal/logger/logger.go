// Package logger holds the process-wide slog logger used by o1heapctl and
// the examples.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// L is the global logger instance. It's initialized to discard all output by default.
// Call Init() to enable logging.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	defaultMaxSizeMB  = 16
	defaultMaxBackups = 5
	defaultMaxAgeDays = 30
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	File    string     // Rotated log file. Empty logs to Stderr
	Format  string     // "text" (default) or "json"
	Level   slog.Level // Minimum log level

	MaxSizeMB  int // Rotation threshold. Default: 16
	MaxBackups int // Rotated files kept. Default: 5
	MaxAgeDays int // Rotated files older than this are removed. Default: 30

	Stderr io.Writer // Destination when File is empty. Default: os.Stderr
}

// Init configures logging. Call from main() before any log calls.
// The returned closer flushes and closes the log file, if any.
func Init(opts Options) (io.Closer, error) {
	if !opts.Enabled {
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nopCloser{}, nil
	}

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch {
	case opts.File != "":
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, defaultMaxSizeMB),
			MaxBackups: orDefault(opts.MaxBackups, defaultMaxBackups),
			MaxAge:     orDefault(opts.MaxAgeDays, defaultMaxAgeDays),
		}
		w, closer = lj, lj
	case opts.Stderr != nil:
		w = opts.Stderr
	default:
		w = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}
	switch strings.ToLower(opts.Format) {
	case "", "text":
		L = slog.New(slog.NewTextHandler(w, hopts))
	case "json":
		L = slog.New(slog.NewJSONHandler(w, hopts))
	default:
		return nil, fmt.Errorf("logger: unknown format %q", opts.Format)
	}
	return closer, nil
}

// ParseLevel maps "debug", "info", "warn" or "error" to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logger: %w", err)
	}
	return level, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
