package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	defaultLogger *slog.Logger
	once          sync.Once
)

// Init initializes the default logger with a JSON handler writing to
// os.Stdout at debug level. It ensures that the logger is initialized only
// once; callers that need a specific level/format should use InitWith
// before any Get/Info/Warn/Error/Debug call.
func Init() {
	once.Do(func() {
		defaultLogger = newLogger("debug", "json")
		slog.SetDefault(defaultLogger)
		defaultLogger.Info("Logger initialized")
	})
}

// InitWith initializes the default logger with an explicit level ("debug",
// "info", "warn", "error") and format ("json" or "text"). Like Init, it
// only takes effect on the first call.
func InitWith(level, format string) {
	once.Do(func() {
		defaultLogger = newLogger(level, format)
		slog.SetDefault(defaultLogger)
		defaultLogger.Info("Logger initialized", "level", level, "format", format)
	})
}

func newLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(level string) slog.Level {
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

// Get returns the initialized default logger.
// It calls Init() to ensure the logger is ready before returning it.
func Get() *slog.Logger {
	Init() // Ensures logger is initialized
	return defaultLogger
}

// Info logs an informational message using the default logger.
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Warn logs a warning message using the default logger.
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs an error message using the default logger.
func Error(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	Get().Error(msg, args...)
}

// Debug logs a debug message using the default logger.
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}
