package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gxo-labs/scopelog/internal/logsite"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func everyN(n int) *metadata.Mutable {
	md := metadata.NewMutable()
	md.Add(metadata.LogEveryN, n)
	return md
}

func TestCheckCounting_LogsEveryNth(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("counting")
	md := everyN(3)

	var logged []int
	var skips []int
	for i := 0; i < 9; i++ {
		skipped, err := r.CheckStatus(r.CheckCounting(md, key), key)
		require.NoError(t, err)
		if skipped >= 0 {
			logged = append(logged, i)
			skips = append(skips, skipped)
		}
	}

	assert.Equal(t, []int{0, 3, 6}, logged)
	assert.Equal(t, []int{0, 2, 2}, skips)
}

func TestCheckCounting_NoDirective(t *testing.T) {
	r := NewRegistry()

	assert.Nil(t, r.CheckCounting(metadata.None(), logsite.Injected("none")))
	assert.Zero(t, r.Len(), "no state is created without a directive")
}

func TestCheckCounting_SmallN(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("small")

	for _, n := range []int{-1, 0, 1} {
		for i := 0; i < 3; i++ {
			assert.Equal(t, Allow, r.CheckCounting(everyN(n), key))
		}
	}
}

func TestCheckCounting_SameInstanceUntilReset(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("instance")
	md := everyN(2)

	first := r.CheckCounting(md, key)
	require.NotEqual(t, Disallow, first)
	require.NoError(t, first.Reset())

	assert.Equal(t, Disallow, r.CheckCounting(md, key))
	second := r.CheckCounting(md, key)
	assert.Same(t, first, second)
}

func TestCheckCounting_DistinctSitesAreIndependent(t *testing.T) {
	r := NewRegistry()
	md := everyN(5)
	a := logsite.Injected("a")
	b := logsite.Specialize(a, "tenant-1")

	_, err := r.CheckStatus(r.CheckCounting(md, a), a)
	require.NoError(t, err)

	skipped, err := r.CheckStatus(r.CheckCounting(md, b), b)
	require.NoError(t, err)
	assert.Zero(t, skipped, "first call of a specialized site logs")
	assert.Equal(t, 2, r.Len())
}

func TestCheckCounting_ConcurrentCallersShareCycles(t *testing.T) {
	const (
		n       = 10
		workers = 8
		calls   = 1000
	)
	r := NewRegistry()
	key := logsite.Injected("concurrent")
	md := everyN(n)

	// The first call of a fresh site logs; start the measured run after it
	// so every later claim accounts for exactly n invocations.
	_, err := r.CheckStatus(r.CheckCounting(md, key), key)
	require.NoError(t, err)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < calls; i++ {
				if skipped, _ := r.CheckStatus(r.CheckCounting(md, key), key); skipped >= 0 {
					allowed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	// Every logged statement consumed exactly n invocations; the rest are
	// still counted toward the next cycle.
	stats := r.StatsFor(key)
	assert.Equal(t, uint64(workers*calls), uint64(allowed.Load())*n+stats.counter.counted())
	assert.Greater(t, allowed.Load(), int64(0))
	assert.Zero(t, stats.counter.state.Load()&claimedBit)
}
