// Package logger implements the scopelog backend on top of log/slog.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/level"
	sllog "github.com/gxo-labs/scopelog/pkg/scopelog/v1/log"
)

// defaultLevel is used when the configured level name is empty or unknown.
const defaultLevel = level.Info

// parseLogLevel resolves a level name, accepting both the scopelog names
// (FINE, WARNING, SEVERE, ...) and the slog ones (DEBUG, WARN, ERROR).
func parseLogLevel(name string) level.Level {
	lvl, err := level.Parse(name)
	if err != nil {
		return defaultLevel
	}
	return lvl
}

// slogLogger implements sllog.Logger with an slog.Logger.
type slogLogger struct {
	*slog.Logger
}

var _ sllog.ForcingLogger = (*slogLogger)(nil)

// NewLogger creates a Logger writing records at or above levelName to writer
// (os.Stderr when nil) in the given format, "json" or "text". Records carry
// trace and span identifiers when the logging context holds a valid span.
func NewLogger(levelName string, format string, writer io.Writer) sllog.Logger {
	if writer == nil {
		writer = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:       parseLogLevel(levelName).Slog(),
		ReplaceAttr: replaceLevelAttribute,
	}

	var base slog.Handler
	switch strings.ToLower(format) {
	case "json":
		base = slog.NewJSONHandler(writer, opts)
	default:
		base = slog.NewTextHandler(writer, opts)
	}
	return &slogLogger{Logger: slog.New(NewOtelHandler(base))}
}

// NewDefaultLogger returns a text logger on os.Stderr.
func NewDefaultLogger(levelName string) sllog.Logger {
	return NewLogger(levelName, "text", os.Stderr)
}

// replaceLevelAttribute renders levels with their scopelog names, so records
// show FINE or SEVERE instead of DEBUG-4 or ERROR+4.
func replaceLevelAttribute(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok {
		a.Value = slog.StringValue(level.FromSlog(lvl).String())
	}
	return a
}

func (l *slogLogger) Debugf(format string, args ...any) {
	l.logf(slog.LevelDebug, format, args...)
}

func (l *slogLogger) Infof(format string, args ...any) {
	l.logf(slog.LevelInfo, format, args...)
}

func (l *slogLogger) Warnf(format string, args ...any) {
	l.logf(slog.LevelWarn, format, args...)
}

// Errorf logs at ERROR. When the last argument is an error, its type and
// cause are added as attributes.
func (l *slogLogger) Errorf(format string, args ...any) {
	ctx := context.Background()
	if !l.Logger.Enabled(ctx, slog.LevelError) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if len(args) == 0 {
		l.Logger.Log(ctx, slog.LevelError, msg)
		return
	}
	err, ok := args[len(args)-1].(error)
	if !ok {
		l.Logger.Log(ctx, slog.LevelError, msg)
		return
	}
	l.Logger.Log(ctx, slog.LevelError, msg, errorAttrs(err)...)
}

// errorAttrs describes err with an error_type for the library's own error
// types and the message of the underlying cause.
func errorAttrs(err error) []any {
	var attrs []any
	var (
		stateErr      *slerrors.InvalidContextStateError
		validationErr *slerrors.ValidationError
		configErr     *slerrors.ConfigError
		lookupErr     *slerrors.LookupError
	)
	switch {
	case errors.As(err, &stateErr):
		attrs = append(attrs, slog.String("error_type", "InvalidContextStateError"))
		if stateErr.Cause != nil {
			err = stateErr.Cause
		}
	case errors.As(err, &validationErr):
		attrs = append(attrs, slog.String("error_type", "ValidationError"))
	case errors.As(err, &configErr):
		attrs = append(attrs, slog.String("error_type", "ConfigError"))
	case errors.As(err, &lookupErr):
		attrs = append(attrs, slog.String("error_type", "LookupError"), slog.String("key", lookupErr.Key))
	}
	return append(attrs, slog.String("error", err.Error()))
}

func (l *slogLogger) logf(lvl slog.Level, format string, args ...any) {
	ctx := context.Background()
	if l.Logger.Enabled(ctx, lvl) {
		l.Logger.Log(ctx, lvl, fmt.Sprintf(format, args...))
	}
}

func (l *slogLogger) LogCtx(ctx context.Context, lvl slog.Level, msg string, args ...any) {
	l.Logger.Log(ctx, lvl, msg, args...)
}

// LogForced hands the record straight to the handler, skipping the level
// check done by slog.Logger.
func (l *slogLogger) LogForced(ctx context.Context, lvl slog.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	r := slog.NewRecord(time.Now(), lvl, msg, 0)
	r.Add(args...)
	_ = l.Logger.Handler().Handle(ctx, r)
}

func (l *slogLogger) With(args ...any) sllog.Logger {
	return &slogLogger{Logger: l.Logger.With(args...)}
}

func (l *slogLogger) IsEnabled(lvl slog.Level) bool {
	return l.Logger.Enabled(context.Background(), lvl)
}
