package ratelimit

import (
	"sync/atomic"

	"github.com/gxo-labs/scopelog/internal/logsite"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
)

// sampler logs on average once every N invocations. Each invocation is a hit
// with probability 1/N; hits accumulate until a statement consumes one, so a
// hit that coincides with a suppression by another limiter is not lost.
type sampler struct {
	pending atomic.Int64
	claimed atomic.Bool
}

func (s *sampler) check(n int, intN func(int) int) Status {
	if intN(n) == 0 {
		s.pending.Add(1)
	}
	if s.pending.Load() <= 0 || !s.claimed.CompareAndSwap(false, true) {
		return Disallow
	}
	if s.pending.Load() <= 0 {
		s.claimed.Store(false)
		return Disallow
	}
	return s
}

func (s *sampler) Reset() error {
	s.pending.Add(-1)
	s.claimed.Store(false)
	return nil
}

func (s *sampler) release() {
	s.claimed.Store(false)
}

// CheckSampling applies the LogSampleEveryN directive of md to the log site.
func (r *Registry) CheckSampling(md metadata.Metadata, key logsite.Key) Status {
	n, ok := metadata.Get[int](md, metadata.LogSampleEveryN)
	if !ok {
		return nil
	}
	if n <= 1 {
		return Allow
	}
	return r.StatsFor(key).sampler.check(n, r.intN)
}
