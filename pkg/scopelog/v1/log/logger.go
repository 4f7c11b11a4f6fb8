// Package log defines the backend interface scopelog writes records to.
package log

import (
	"context"
	"log/slog"
)

// Logger is the sink for log records produced by scopelog as well as for the
// library's own operational messages. Levels are slog levels; the finer
// scopelog levels map below slog.LevelDebug.
type Logger interface {
	// Debugf logs a formatted message at the DEBUG level.
	Debugf(format string, args ...any)
	// Infof logs a formatted message at the INFO level.
	Infof(format string, args ...any)
	// Warnf logs a formatted message at the WARN level.
	Warnf(format string, args ...any)
	// Errorf logs a formatted message at the ERROR level. A trailing error
	// argument is logged as structured attributes.
	Errorf(format string, args ...any)

	// LogCtx logs msg at level with key-value attributes. Implementations may
	// extract trace identifiers from ctx.
	LogCtx(ctx context.Context, level slog.Level, msg string, args ...any)

	// With returns a Logger adding args to every record.
	With(args ...any) Logger
	// IsEnabled reports whether records at level are written.
	IsEnabled(level slog.Level) bool
}

// ForcingLogger is implemented by backends that can write a record below
// their configured threshold. Statements forced by a scope's log level map
// are written through LogForced when the backend supports it.
type ForcingLogger interface {
	Logger
	LogForced(ctx context.Context, level slog.Level, msg string, args ...any)
}
