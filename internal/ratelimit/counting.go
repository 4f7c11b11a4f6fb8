package ratelimit

import (
	"sync/atomic"

	"github.com/gxo-labs/scopelog/internal/logsite"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
)

// Layout of the counter state word.
const (
	claimedBit = uint64(1) << 63
	pendingBit = uint64(1) << 62
	countMask  = pendingBit - 1
)

// counter enforces "log every Nth invocation" for one log site. The counter is
// its own Status, so repeated checks return the same instance until a reset.
//
// The invocation count and the claim flags share one word, so counting an
// invocation and deciding whether it claims the cycle is a single atomic step.
// A cycle that was claimed and then suppressed by another limiter stays
// pending, and the next invocation claims it instead. A fresh counter is
// pending, so the first invocation of a site logs.
type counter struct {
	state atomic.Uint64

	// consumed is the number of invocations the current claim accounts for.
	// It is written by the claim holder only.
	consumed atomic.Uint64
}

func (c *counter) init() {
	c.state.Store(pendingBit)
}

func (c *counter) check(n int) Status {
	for {
		old := c.state.Load()
		count := old&countMask + 1
		claimed := old&claimedBit != 0
		pending := old&pendingBit != 0

		next := old&^countMask | count
		allow := !claimed && (pending || count >= uint64(n))
		if allow {
			next |= claimedBit
		}
		if !c.state.CompareAndSwap(old, next) {
			continue
		}
		if !allow {
			return Disallow
		}
		if pending {
			// The cycle starts over from whatever has been counted.
			c.consumed.Store(count)
		} else {
			c.consumed.Store(uint64(n))
		}
		return c
	}
}

// Reset starts a new cycle. Invocations counted after the claim carry over
// to the next cycle.
func (c *counter) Reset() error {
	consumed := c.consumed.Load()
	for {
		old := c.state.Load()
		if old&claimedBit == 0 {
			return nil
		}
		count := old & countMask
		if consumed > count {
			consumed = count
		}
		if c.state.CompareAndSwap(old, count-consumed) {
			return nil
		}
	}
}

func (c *counter) release() {
	for {
		old := c.state.Load()
		if c.state.CompareAndSwap(old, old&^claimedBit|pendingBit) {
			return
		}
	}
}

// counted reports the invocations counted toward the current cycle.
func (c *counter) counted() uint64 {
	return c.state.Load() & countMask
}

// CheckCounting applies the LogEveryN directive of md to the log site. It
// returns nil when the directive is absent and Allow when N <= 1.
func (r *Registry) CheckCounting(md metadata.Metadata, key logsite.Key) Status {
	n, ok := metadata.EveryN(md)
	if !ok {
		return nil
	}
	if n <= 1 {
		return Allow
	}
	return r.StatsFor(key).counter.check(n)
}
