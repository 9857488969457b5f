package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the global structured logger
	Log *slog.Logger
	// logWriter is the rotating log writer, nil when logging to stdout
	logWriter *lumberjack.Logger
)

// Options configures the global logger
type Options struct {
	Level  string
	Format string
	// File enables rotating file output; stdout is used when empty
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ParseLevel maps a config string to a slog level, defaulting to info
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

// InitLogger initializes the global logger and makes it the slog default
func InitLogger(opts Options) *slog.Logger {
	var writer io.Writer = os.Stdout
	if opts.File != "" {
		logWriter = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    valueOr(opts.MaxSizeMB, 10),
			MaxBackups: valueOr(opts.MaxBackups, 3),
			MaxAge:     valueOr(opts.MaxAgeDays, 7),
			Compress:   true,
		}
		writer = io.MultiWriter(os.Stdout, logWriter)
	}

	Log = slog.New(newHandler(writer, opts))
	slog.SetDefault(Log)
	return Log
}

// New builds a logger without touching the global one
func New(w io.Writer, opts Options) *slog.Logger {
	return slog.New(newHandler(w, opts))
}

func newHandler(w io.Writer, opts Options) slog.Handler {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	if strings.EqualFold(opts.Format, "text") {
		return slog.NewTextHandler(w, handlerOpts)
	}
	return slog.NewJSONHandler(w, handlerOpts)
}

// Close closes the log file
func Close() {
	if logWriter != nil {
		logWriter.Close()
	}
}

// getLogger returns the global logger, or the default slog logger if not initialized.
func getLogger() *slog.Logger {
	if Log != nil {
		return Log
	}
	return slog.Default()
}

// Error logs an error message
func Error(msg string, args ...any) {
	getLogger().Error(msg, args...)
}

func valueOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
