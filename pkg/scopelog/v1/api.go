package v1

import (
	"context"
	"strings"
	"time"

	"github.com/gxo-labs/scopelog/internal/config"
	internalevents "github.com/gxo-labs/scopelog/internal/events"
	"github.com/gxo-labs/scopelog/internal/ratelimit"
	"github.com/gxo-labs/scopelog/internal/scope"
	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/events"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/level"
	sllog "github.com/gxo-labs/scopelog/pkg/scopelog/v1/log"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/tags"
)

// DefaultName is the logger name used when none is configured.
const DefaultName = "scopelog"

// Logger is the entry point of the fluent API. It decides, per statement,
// whether the statement is enabled by the backend or forced by a scope, runs
// the call site's rate limiters and writes the record enriched with the
// ambient scope context. A Logger is safe for concurrent use.
type Logger struct {
	name     string
	backend  sllog.Logger
	out      sllog.Logger
	ops      sllog.Logger
	registry *ratelimit.Registry
	provider scope.Provider
	bus      events.Bus
	clock    func() int64

	rootTags   *tags.Tags
	rootLevels *level.Map
	defaults   RateLimit

	spanEvents bool
	redact     map[string]struct{}
}

// RateLimit is a set of rate limits applied to a statement. Zero fields are
// not applied.
type RateLimit struct {
	// Every logs one statement out of every N invocations of a log site.
	Every int
	// AtMostEvery logs at most one statement per period at a log site.
	AtMostEvery time.Duration
	// SampleEvery logs on average one statement every N invocations.
	SampleEvery int
}

// IsZero reports whether no limit is set.
func (r RateLimit) IsZero() bool {
	return r.Every == 0 && r.AtMostEvery == 0 && r.SampleEvery == 0
}

// processStart anchors the default clock. time.Since reads the monotonic
// clock, so wall-clock steps never reach the duration limiters.
var processStart = time.Now()

func monotonicNanos() int64 { return time.Since(processStart).Nanoseconds() }

// Option is a function type used to configure a Logger at creation.
type Option func(*Logger) error

// New creates a Logger writing to backend. Without options the Logger uses
// the process-wide rate-limiter registry, reads scope state from the
// context and discards statement events.
func New(backend sllog.Logger, opts ...Option) (*Logger, error) {
	if backend == nil {
		return nil, slerrors.NewConfigError("backend logger cannot be nil", nil)
	}
	l := &Logger{
		name:       DefaultName,
		backend:    backend,
		registry:   ratelimit.Default(),
		provider:   scope.DefaultProvider(),
		bus:        internalevents.NewNoOpEventBus(),
		clock:      monotonicNanos,
		rootTags:   tags.Empty(),
		rootLevels: level.EmptyMap(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	l.out = backend.With("logger", l.name)
	l.ops = backend.With("component", "scopelog", "logger", l.name)
	return l, nil
}

// WithName sets the logger name. The name appears on every record and is
// the name looked up in log level maps.
func WithName(name string) Option {
	return func(l *Logger) error {
		if name == "" {
			return slerrors.NewConfigError("logger name cannot be empty", nil)
		}
		l.name = name
		return nil
	}
}

// WithRegistry replaces the process-wide rate-limiter registry, typically to
// isolate tests.
func WithRegistry(registry *ratelimit.Registry) Option {
	return func(l *Logger) error {
		if registry == nil {
			return slerrors.NewConfigError("rate limit registry cannot be nil", nil)
		}
		l.registry = registry
		return nil
	}
}

// WithContextProvider replaces the source of ambient tags, metadata and log
// level maps.
func WithContextProvider(provider scope.Provider) Option {
	return func(l *Logger) error {
		if provider == nil {
			return slerrors.NewConfigError("context provider cannot be nil", nil)
		}
		l.provider = provider
		return nil
	}
}

// WithEventBus publishes the fate of every enabled statement to bus.
func WithEventBus(bus events.Bus) Option {
	return func(l *Logger) error {
		if bus == nil {
			return slerrors.NewConfigError("event bus cannot be nil", nil)
		}
		l.bus = bus
		return nil
	}
}

// WithClock replaces the nanosecond clock read by duration rate limits. The
// clock must be monotonic and never negative; the default counts nanoseconds
// since the package was loaded.
func WithClock(nowNanos func() int64) Option {
	return func(l *Logger) error {
		if nowNanos == nil {
			return slerrors.NewConfigError("clock cannot be nil", nil)
		}
		l.clock = nowNanos
		return nil
	}
}

// WithSpanEvents mirrors logged statements as events on the span held by the
// statement's context. Tags and causes matching a keyword are redacted.
func WithSpanEvents(redactKeywords ...string) Option {
	return func(l *Logger) error {
		l.spanEvents = true
		if len(redactKeywords) > 0 && l.redact == nil {
			l.redact = make(map[string]struct{}, len(redactKeywords))
		}
		for _, kw := range redactKeywords {
			if kw == "" {
				return slerrors.NewConfigError("redaction keyword cannot be empty", nil)
			}
			l.redact[strings.ToLower(kw)] = struct{}{}
		}
		return nil
	}
}

// WithRootTags adds tags to every record, beneath those of the active scopes.
func WithRootTags(t *tags.Tags) Option {
	return func(l *Logger) error {
		l.rootTags = l.rootTags.Merge(t)
		return nil
	}
}

// WithLevelMap forces statements whose level is at or above the level m
// assigns to the logger name, in every context.
func WithLevelMap(m *level.Map) Option {
	return func(l *Logger) error {
		if m == nil {
			return slerrors.NewConfigError("log level map cannot be nil", nil)
		}
		l.rootLevels = l.rootLevels.Merge(m)
		return nil
	}
}

// WithDefaultRateLimit applies limits to statements that carry no rate limit
// of their own.
func WithDefaultRateLimit(limit RateLimit) Option {
	return func(l *Logger) error {
		if limit.Every < 0 || limit.SampleEvery < 0 || limit.AtMostEvery < 0 {
			return slerrors.NewConfigError("default rate limits cannot be negative", nil)
		}
		l.defaults = limit
		return nil
	}
}

// WithConfig applies a loaded configuration document: the logger name, the
// root log level map and tags, the default rate limit and span events.
func WithConfig(cfg *config.Config) Option {
	return func(l *Logger) error {
		if cfg == nil {
			return slerrors.NewConfigError("config cannot be nil", nil)
		}
		opts := []Option{
			WithName(cfg.Name),
			WithLevelMap(cfg.LevelMap()),
			WithRootTags(cfg.RootTags()),
		}
		if !cfg.RateLimit.IsZero() {
			opts = append(opts, WithDefaultRateLimit(RateLimit{
				Every:       cfg.RateLimit.Every,
				AtMostEvery: cfg.RateLimit.Period(),
				SampleEvery: cfg.RateLimit.SampleEvery,
			}))
		}
		if cfg.Tracing.SpanEvents {
			opts = append(opts, WithSpanEvents(cfg.Tracing.Redact...))
		}
		for _, opt := range opts {
			if err := opt(l); err != nil {
				return err
			}
		}
		return nil
	}
}

// Name returns the logger name.
func (l *Logger) Name() string { return l.name }

// Registry returns the rate-limiter registry used by the logger.
func (l *Logger) Registry() *ratelimit.Registry { return l.registry }

// At starts a statement at lvl. The returned Api discards everything when
// lvl is neither enabled by the backend nor forced by the context.
func (l *Logger) At(ctx context.Context, lvl level.Level) *Api {
	if ctx == nil {
		ctx = context.Background()
	}
	if lvl == level.Off {
		return noOp
	}
	if l.backend.IsEnabled(lvl.Slog()) {
		return newApi(l, ctx, lvl, false)
	}
	if l.isForced(ctx, lvl) {
		return newApi(l, ctx, lvl, true)
	}
	return noOp
}

func (l *Logger) AtFinest(ctx context.Context) *Api  { return l.At(ctx, level.Finest) }
func (l *Logger) AtFiner(ctx context.Context) *Api   { return l.At(ctx, level.Finer) }
func (l *Logger) AtFine(ctx context.Context) *Api    { return l.At(ctx, level.Fine) }
func (l *Logger) AtConfig(ctx context.Context) *Api  { return l.At(ctx, level.Config) }
func (l *Logger) AtInfo(ctx context.Context) *Api    { return l.At(ctx, level.Info) }
func (l *Logger) AtWarning(ctx context.Context) *Api { return l.At(ctx, level.Warning) }
func (l *Logger) AtSevere(ctx context.Context) *Api  { return l.At(ctx, level.Severe) }

func (l *Logger) isForced(ctx context.Context, lvl level.Level) bool {
	if !l.rootLevels.IsEmpty() && lvl >= l.rootLevels.GetLevel(l.name) {
		return true
	}
	return l.provider.ShouldForceLogging(ctx, l.name, lvl)
}

func (l *Logger) emit(e events.Event) {
	e.Timestamp = time.Now()
	e.Logger = l.name
	l.bus.Emit(e)
}
