package v1

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gxo-labs/scopelog/internal/logsite"
	"github.com/gxo-labs/scopelog/internal/ratelimit"
	"github.com/gxo-labs/scopelog/internal/scope"
	"github.com/gxo-labs/scopelog/internal/tracing"
	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/events"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/level"
	sllog "github.com/gxo-labs/scopelog/pkg/scopelog/v1/log"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/tags"
)

// Api accumulates one log statement. It is obtained from Logger.At and is
// terminated by Log or Logf; an Api must not be reused or shared between
// goroutines.
type Api struct {
	logger *Logger
	ctx    context.Context
	level  level.Level
	forced bool
	site   logsite.Key
	meta   *metadata.Mutable
	tags   *tags.Tags
}

// noOp is returned for disabled statements. All of its methods return
// immediately.
var noOp = &Api{}

func newApi(l *Logger, ctx context.Context, lvl level.Level, forced bool) *Api {
	return &Api{
		logger: l,
		ctx:    ctx,
		level:  lvl,
		forced: forced,
		meta:   metadata.NewMutable(),
		tags:   tags.Empty(),
	}
}

// IsEnabled reports whether the statement will reach its rate limiters.
func (a *Api) IsEnabled() bool { return a.logger != nil }

// Every logs one statement out of every n invocations of the log site. The
// first invocation always logs.
func (a *Api) Every(n int) *Api {
	if n <= 0 {
		panic(slerrors.NewValidationError(fmt.Sprintf("rate limit count must be positive, got %d", n), nil))
	}
	if a.logger == nil || n == 1 {
		return a
	}
	a.meta.Add(metadata.LogEveryN, n)
	return a
}

// AtMostEvery logs at most one statement per period at the log site.
// Periods are aligned to multiples of d.
func (a *Api) AtMostEvery(d time.Duration) *Api {
	if d < 0 {
		panic(slerrors.NewValidationError(fmt.Sprintf("rate limit period cannot be negative, got %s", d), nil))
	}
	if a.logger == nil || d == 0 {
		return a
	}
	a.meta.Add(metadata.LogAtMostEvery, d)
	return a
}

// OnAverageEvery logs each invocation of the log site with probability 1/n.
func (a *Api) OnAverageEvery(n int) *Api {
	if n <= 0 {
		panic(slerrors.NewValidationError(fmt.Sprintf("sampling rate must be positive, got %d", n), nil))
	}
	if a.logger == nil || n == 1 {
		return a
	}
	a.meta.Add(metadata.LogSampleEveryN, n)
	return a
}

// Per tracks rate limits separately for each distinct qualifier; qualifier
// must be comparable. Calling Per several times nests the groupings.
func (a *Api) Per(qualifier any) *Api {
	if a.logger == nil || qualifier == nil {
		return a
	}
	a.meta.Add(metadata.GroupBy, qualifier)
	return a
}

// PerScope tracks rate limits separately for each scope of type t enclosing
// the statement. Without such a scope the call has no effect.
func (a *Api) PerScope(t *scope.Type) *Api {
	if a.logger == nil {
		return a
	}
	if s, ok := a.logger.provider.Lookup(a.ctx, t); ok {
		a.meta.Add(metadata.GroupBy, s)
	}
	return a
}

// With attaches value under key. Adding a non-repeated key twice keeps the
// last value.
func (a *Api) With(key *metadata.Key, value any) *Api {
	if a.logger == nil {
		return a
	}
	a.meta.Add(key, value)
	return a
}

// WithTags adds tags to the statement, merged with those of the scopes.
func (a *Api) WithTags(t *tags.Tags) *Api {
	if a.logger == nil {
		return a
	}
	a.tags = a.tags.Merge(t)
	return a
}

// WithCause attaches err to the statement. A nil err is ignored.
func (a *Api) WithCause(err error) *Api {
	if a.logger == nil || err == nil {
		return a
	}
	a.meta.Add(metadata.Cause, err)
	return a
}

// WithLogSite sets the key rate limits are tracked under, replacing the
// caller's source location.
func (a *Api) WithLogSite(key logsite.Key) *Api {
	if a.logger == nil {
		return a
	}
	if key == nil {
		panic(slerrors.NewValidationError("log site key cannot be nil", nil))
	}
	a.site = key
	return a
}

// Log writes msg if the statement passes its rate limits.
func (a *Api) Log(msg string) {
	if a.logger == nil {
		return
	}
	a.logger.write(a, msg)
}

// Logf formats the message only when the statement passes its rate limits.
func (a *Api) Logf(format string, args ...any) {
	if a.logger == nil {
		return
	}
	a.logger.write(a, format, args...)
}

// write runs the rate limiters of a and writes the record. It must be called
// directly from Log or Logf so the caller's location can be found.
func (l *Logger) write(a *Api, format string, args ...any) {
	key := a.site
	if key == nil {
		key = logsite.Caller(2)
	}
	l.applyDefaults(a.meta)
	for _, q := range a.meta.FindAll(metadata.GroupBy) {
		key = logsite.Specialize(key, q)
	}

	decision := l.registry.Evaluate(a.meta, key, l.clock())
	skipped, resetErr := l.registry.CheckStatus(decision.Status, key)
	if decision.Status != nil {
		l.forgetWithScopes(a.meta, key)
	}
	event := events.Event{Level: a.level.String(), Site: key.String()}
	if skipped < 0 {
		event.Type = events.StatementSuppressed
		l.emit(event)
		return
	}
	if resetErr != nil {
		l.ops.Warnf("Resetting rate limits of log site %s failed: %v", key, resetErr)
		failed := event
		failed.Type = events.ResetFailed
		failed.Payload = map[string]any{"error": resetErr.Error()}
		l.emit(failed)
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	scopeTags := l.rootTags.Merge(l.provider.Tags(a.ctx)).Merge(a.tags)
	cause, _ := metadata.Get[error](a.meta, metadata.Cause)

	attrs := make([]any, 0, 8)
	if !scopeTags.IsEmpty() {
		attrs = append(attrs, tagGroup(scopeTags))
	}
	attrs = appendMetadata(attrs, l.provider.Metadata(a.ctx))
	attrs = appendMetadata(attrs, a.meta)
	if skipped > 0 {
		attrs = append(attrs, slog.Int(metadata.SkippedCount.Label(), skipped))
	}
	if decision.Period != nil {
		attrs = append(attrs, slog.String(metadata.LogAtMostEvery.Label(), decision.Period.String()))
	}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	if a.forced {
		attrs = append(attrs, slog.Bool(metadata.WasForced.Label(), true))
	}

	if forcing, ok := l.out.(sllog.ForcingLogger); ok && a.forced {
		forcing.LogForced(a.ctx, a.level.Slog(), msg, attrs...)
	} else {
		l.out.LogCtx(a.ctx, a.level.Slog(), msg, attrs...)
	}

	if l.spanEvents {
		tracing.RecordStatement(a.ctx, tracing.Statement{
			Logger:  l.name,
			Level:   a.level,
			Message: msg,
			Tags:    scopeTags,
			Skipped: skipped,
			Cause:   cause,
		}, l.redact)
	}

	event.Type = events.StatementLogged
	event.Skipped = skipped
	l.emit(event)
	if a.forced {
		event.Type = events.StatementForced
		event.Skipped = 0
		l.emit(event)
	}
}

// applyDefaults adds the logger's default rate limits to statements that
// set none of their own.
func (l *Logger) applyDefaults(md *metadata.Mutable) {
	if l.defaults.IsZero() {
		return
	}
	for _, key := range rateLimitKeys {
		if md.FindValue(key) != nil {
			return
		}
	}
	if l.defaults.Every > 1 {
		md.Add(metadata.LogEveryN, l.defaults.Every)
	}
	if l.defaults.AtMostEvery > 0 {
		md.Add(metadata.LogAtMostEvery, l.defaults.AtMostEvery)
	}
	if l.defaults.SampleEvery > 1 {
		md.Add(metadata.LogSampleEveryN, l.defaults.SampleEvery)
	}
}

var rateLimitKeys = []*metadata.Key{metadata.LogEveryN, metadata.LogAtMostEvery, metadata.LogSampleEveryN}

// directive reports keys that steer the front-end rather than describe the
// statement. They are not written as record attributes.
func directive(key *metadata.Key) bool {
	switch key {
	case metadata.LogEveryN, metadata.LogAtMostEvery, metadata.LogSampleEveryN,
		metadata.GroupBy, metadata.Cause, metadata.WasForced, metadata.SkippedCount:
		return true
	}
	return false
}

func appendMetadata(attrs []any, md metadata.Metadata) []any {
	for i := 0; i < md.Size(); i++ {
		if key := md.KeyAt(i); !directive(key) {
			attrs = append(attrs, slog.Any(key.Label(), md.ValueAt(i)))
		}
	}
	return attrs
}

// tagGroup renders tags as a "tags" group: bare tags as true, single values
// as scalars and multiple values as a list.
func tagGroup(t *tags.Tags) slog.Attr {
	attrs := make([]any, 0, t.Len())
	for _, name := range t.Names() {
		vals, _ := t.Values(name)
		switch len(vals) {
		case 0:
			attrs = append(attrs, slog.Bool(name, true))
		case 1:
			attrs = append(attrs, slog.Any(name, vals[0].Any()))
		default:
			plain := make([]any, len(vals))
			for i, v := range vals {
				plain[i] = v.Any()
			}
			attrs = append(attrs, slog.Any(name, plain))
		}
	}
	return slog.Group("tags", attrs...)
}

// scopedSite identifies a registry entry partitioned by a LoggingScope.
type scopedSite struct {
	registry *ratelimit.Registry
	key      logsite.Key
}

// forgetWithScopes removes the registry entry of key once a scope it is
// grouped by closes, so per-scope limits do not outlive their scopes.
func (l *Logger) forgetWithScopes(md *metadata.Mutable, key logsite.Key) {
	for _, q := range md.FindAll(metadata.GroupBy) {
		s, ok := q.(*scope.LoggingScope)
		if !ok {
			continue
		}
		registry := l.registry
		s.OnClose(scopedSite{registry: registry, key: key}, func() { registry.Remove(key) })
	}
}
