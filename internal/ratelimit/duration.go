package ratelimit

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gxo-labs/scopelog/internal/logsite"
	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
)

// pendingBoundary marks a duration limiter that has never logged.
const pendingBoundary = -1

// Period is the diagnostic form of a duration limit: the period and the
// number of statements suppressed since the last one logged.
type Period struct {
	Duration time.Duration
	Skipped  int64
}

// String renders the period, appending " [skipped: K]" once K > 0.
func (p Period) String() string {
	if p.Skipped > 0 {
		return fmt.Sprintf("%s [skipped: %d]", p.Duration, p.Skipped)
	}
	return p.Duration.String()
}

// durationLimiter enforces "log at most once per period" for one log site.
// Periods are anchored to multiples of the period length, not to the instant
// of the last logged statement, so successive windows never drift. A
// timestamp more than a period before the stored boundary means the clock was
// set back; the site logs once and re-anchors on the earlier period. Smaller
// steps back are indistinguishable from racing callers and only delay the
// next period.
type durationLimiter struct {
	// boundary is the start of the period in which the site last logged.
	boundary atomic.Int64

	// nextBoundary is stored into boundary on reset.
	nextBoundary atomic.Int64

	claimed atomic.Bool
	skipped atomic.Int64
}

func (d *durationLimiter) init() {
	d.boundary.Store(pendingBoundary)
}

func (d *durationLimiter) check(nowNanos int64, period time.Duration) Status {
	p := period.Nanoseconds()
	if !d.due(nowNanos, p) || !d.claimed.CompareAndSwap(false, true) {
		d.skipped.Add(1)
		return Disallow
	}
	// The boundary may have moved between the first look and the claim.
	if !d.due(nowNanos, p) {
		d.claimed.Store(false)
		d.skipped.Add(1)
		return Disallow
	}
	d.nextBoundary.Store(nowNanos - nowNanos%p)
	return d
}

func (d *durationLimiter) due(nowNanos, p int64) bool {
	last := d.boundary.Load()
	return last == pendingBoundary || nowNanos >= last+p || nowNanos < last-p
}

// Reset stores the period of the logged statement as the new boundary. Only
// the holder of the claim moves the boundary; resetting again is a no-op.
// Reset never fails.
func (d *durationLimiter) Reset() error {
	if d.claimed.Load() {
		d.boundary.Store(d.nextBoundary.Load())
		d.skipped.Store(0)
		d.claimed.Store(false)
	}
	return nil
}

// release hands the claim back when another limiter suppressed the
// statement, counting it as skipped.
func (d *durationLimiter) release() {
	d.skipped.Add(1)
	d.claimed.Store(false)
}

// CheckDuration applies the LogAtMostEvery directive of md to the log site at
// the caller-supplied monotonic timestamp. It returns nil when the directive
// is absent and Allow for a non-positive period. A negative timestamp panics
// with a ValidationError.
//
// Any other status claims the site: it must be passed to CheckStatus (or
// reset) once the statement logs, otherwise the site stays suppressed.
func (r *Registry) CheckDuration(md metadata.Metadata, key logsite.Key, nowNanos int64) Status {
	period, ok := metadata.AtMostEvery(md)
	if !ok {
		return nil
	}
	if nowNanos < 0 {
		panic(slerrors.NewValidationError(fmt.Sprintf("timestamp cannot be negative: %d", nowNanos), nil))
	}
	if period <= 0 {
		return Allow
	}
	return r.StatsFor(key).duration.check(nowNanos, period)
}

// ShouldLogForTimestamp is the standalone form of CheckDuration: it reports
// whether the site may log at nowNanos and, if so, records that it did.
func (r *Registry) ShouldLogForTimestamp(md metadata.Metadata, key logsite.Key, nowNanos int64) bool {
	status := r.CheckDuration(md, key, nowNanos)
	if status == nil {
		return true
	}
	if status == Disallow {
		return false
	}
	// Reset of a duration limiter never fails.
	_ = status.Reset()
	return true
}
