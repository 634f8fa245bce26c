package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

var defaultLogger *slog.Logger

func init() {
	defaultLogger = New(os.Stderr, "text", "info")
	slog.SetDefault(defaultLogger)
}

// New builds a logger writing to w. format is "text" or "json"; level is one
// of debug, info, warn, error (unknown values mean info).
func New(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     ParseLevel(level),
	}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a config string onto a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// SetLogger allows customized global loggers
func SetLogger(l *slog.Logger) {
	defaultLogger = l
	slog.SetDefault(l)
}

// Logger returns the current global logger.
func Logger() *slog.Logger { return defaultLogger }

// log adds the caller's source position, skipping the exported wrapper.
func log(level slog.Level, msg string, args ...any) {
	if !defaultLogger.Enabled(context.Background(), level) {
		return
	}
	var pcs [1]uintptr
	// Skip runtime.Callers, this func, and the exported wrapper func
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = defaultLogger.Handler().Handle(context.Background(), r)
}

func logf(level slog.Level, format string, args ...any) {
	if !defaultLogger.Enabled(context.Background(), level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	msg := fmt.Sprintf(format, args...)
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	_ = defaultLogger.Handler().Handle(context.Background(), r)
}

func Info(msg string, args ...any)  { log(slog.LevelInfo, msg, args...) }
func Warn(msg string, args ...any)  { log(slog.LevelWarn, msg, args...) }
func Error(msg string, args ...any) { log(slog.LevelError, msg, args...) }
func Debug(msg string, args ...any) { log(slog.LevelDebug, msg, args...) }

func Infof(format string, args ...any)  { logf(slog.LevelInfo, format, args...) }
func Warnf(format string, args ...any)  { logf(slog.LevelWarn, format, args...) }
func Errorf(format string, args ...any) { logf(slog.LevelError, format, args...) }
func Debugf(format string, args ...any) { logf(slog.LevelDebug, format, args...) }

// Printf logs at info level; kept for call sites ported from the log package.
func Printf(format string, args ...any) { logf(slog.LevelInfo, format, args...) }

func Fatalf(format string, args ...any) {
	logf(slog.LevelError, format, args...)
	os.Exit(1)
}

func Fatal(args ...any) {
	log(slog.LevelError, fmt.Sprint(args...))
	os.Exit(1)
}
