package ratelimit

import (
	"math/rand/v2"
	"sync/atomic"

	"github.com/gxo-labs/scopelog/internal/logsite"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
	"github.com/puzpuzpuz/xsync/v3"
)

// Stats bundles the rate-limiter state of one log site. A Stats is created on
// the first rate-limited invocation of its site and lives as long as the
// Registry holding it.
type Stats struct {
	key      logsite.Key
	counter  counter
	duration durationLimiter
	sampler  sampler

	// skipped counts statements suppressed since the last one logged.
	skipped atomic.Int64
}

func newStats(key logsite.Key) *Stats {
	s := &Stats{key: key}
	s.counter.init()
	s.duration.init()
	return s
}

// Key returns the log site the stats belong to.
func (s *Stats) Key() logsite.Key { return s.key }

// Skipped returns the number of statements suppressed since the last one logged.
func (s *Stats) Skipped() int64 { return s.skipped.Load() }

// Registry maps log sites to their Stats. Entries are created on demand.
// Only entries whose key is grouped by a scope instance are removed, when that
// scope closes, so the number of live entries stays bounded by the log
// statements of the program and the scopes currently open.
// A Registry is safe for concurrent use without external locking.
type Registry struct {
	stats *xsync.MapOf[logsite.Key, *Stats]
	intN  func(int) int
}

// Option configures a Registry.
type Option func(*Registry)

// WithRandom replaces the random source used by the sampling limiter.
// intN must return a value in [0, n) and be safe for concurrent use.
func WithRandom(intN func(n int) int) Option {
	return func(r *Registry) {
		if intN != nil {
			r.intN = intN
		}
	}
}

// NewRegistry returns an empty Registry. Use one per test for isolation.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		stats: xsync.NewMapOf[logsite.Key, *Stats](),
		intN:  rand.IntN,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// defaultRegistry is the process-wide registry, initialized once at package load.
var defaultRegistry = NewRegistry()

// Default returns the process-wide Registry.
func Default() *Registry {
	return defaultRegistry
}

// StatsFor returns the unique Stats of key, creating it on first access.
// Concurrent first accesses converge on a single instance.
func (r *Registry) StatsFor(key logsite.Key) *Stats {
	stats, _ := r.stats.LoadOrCompute(key, func() *Stats {
		return newStats(key)
	})
	return stats
}

// Remove forgets the Stats of key. A later access starts from fresh state.
func (r *Registry) Remove(key logsite.Key) {
	r.stats.Delete(key)
}

// Len returns the number of log sites tracked.
func (r *Registry) Len() int {
	return r.stats.Size()
}

// CheckStatus turns a combined status into a logging decision for key. It
// returns -1 when the statement must be suppressed, counting the
// suppression. Otherwise it resets status and returns the number of
// statements suppressed since the last one logged. A reset failure is
// returned together with the non-negative count: the statement still logs.
func (r *Registry) CheckStatus(status Status, key logsite.Key) (int, error) {
	if status == nil {
		return 0, nil
	}
	stats := r.StatsFor(key)
	if status == Disallow {
		stats.skipped.Add(1)
		return -1, nil
	}
	skipped := stats.skipped.Swap(0)
	return int(skipped), status.Reset()
}

// Decision is the combined outcome of all limiters configured on a statement.
type Decision struct {
	// Status is nil when no limiter applies.
	Status Status
	// Period is set when a duration limit allowed the statement.
	Period *Period
}

// Evaluate runs the duration, counting and sampling limiters against md and
// combines their statuses. Every configured limiter is consulted on every
// call so each keeps counting. Slots reserved by limiters that allowed are
// handed back when another limiter suppressed the statement.
func (r *Registry) Evaluate(md metadata.Metadata, key logsite.Key, nowNanos int64) Decision {
	if md == nil || md.Size() == 0 {
		return Decision{}
	}
	byDuration := r.CheckDuration(md, key, nowNanos)
	byCount := r.CheckCounting(md, key)
	bySampling := r.CheckSampling(md, key)

	status := Combine(Combine(byDuration, byCount), bySampling)
	if status == Disallow {
		release(byDuration)
		release(byCount)
		release(bySampling)
		return Decision{Status: Disallow}
	}

	decision := Decision{Status: status}
	if limiter, ok := byDuration.(*durationLimiter); ok {
		period, _ := metadata.AtMostEvery(md)
		decision.Period = &Period{Duration: period, Skipped: limiter.skipped.Load()}
	}
	return decision
}
