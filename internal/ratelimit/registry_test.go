package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gxo-labs/scopelog/internal/logsite"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_StatsForSingleWinner(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("shared")

	const goroutines = 32
	results := make([]*Stats, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.StatsFor(key)
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, key, results[0].Key())
}

func TestRegistry_DefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestCheckStatus(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("check-status")

	t.Run("nil status logs", func(t *testing.T) {
		skipped, err := r.CheckStatus(nil, key)
		assert.NoError(t, err)
		assert.Zero(t, skipped)
	})

	t.Run("disallow counts skips", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			skipped, err := r.CheckStatus(Disallow, key)
			require.NoError(t, err)
			assert.Equal(t, -1, skipped)
		}
		assert.Equal(t, int64(3), r.StatsFor(key).Skipped())
	})

	t.Run("allow reports and clears skips", func(t *testing.T) {
		skipped, err := r.CheckStatus(Allow, key)
		assert.NoError(t, err)
		assert.Equal(t, 3, skipped)
		assert.Zero(t, r.StatsFor(key).Skipped())
	})

	t.Run("reset failure still logs", func(t *testing.T) {
		failing := &fakeStatus{err: errors.New("reset failed")}
		_, _ = r.CheckStatus(Disallow, key)

		skipped, err := r.CheckStatus(failing, key)
		assert.Error(t, err)
		assert.Equal(t, 1, skipped)
		assert.Equal(t, 1, failing.resets)
	})
}

func TestEvaluate_NoDirectives(t *testing.T) {
	r := NewRegistry()

	decision := r.Evaluate(metadata.None(), logsite.Injected("empty"), 0)
	assert.Nil(t, decision.Status)
	assert.Nil(t, decision.Period)

	decision = r.Evaluate(nil, logsite.Injected("empty"), 0)
	assert.Nil(t, decision.Status)
	assert.Zero(t, r.Len())
}

func TestEvaluate_CounterStaysPendingWhileDurationSuppresses(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("combined")
	md := metadata.NewMutable()
	md.Add(metadata.LogEveryN, 3)
	md.Add(metadata.LogAtMostEvery, time.Second)
	p := time.Second.Nanoseconds()

	logs := func(now int64) bool {
		skipped, err := r.CheckStatus(r.Evaluate(md, key, now).Status, key)
		require.NoError(t, err)
		return skipped >= 0
	}

	assert.True(t, logs(0), "first call logs")
	assert.False(t, logs(1))
	assert.False(t, logs(2))
	// The counter is due here, but the duration limit suppresses the call.
	assert.False(t, logs(3))
	// The counter must not wait for another full cycle.
	assert.True(t, logs(p))
	assert.False(t, logs(p+1))
}

func TestEvaluate_ConcurrentDurationLogsOncePerPeriod(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("concurrent-duration")
	md := metadata.NewMutable()
	md.Add(metadata.LogAtMostEvery, time.Hour)

	var mu sync.Mutex
	allowed := 0
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if skipped, _ := r.CheckStatus(r.Evaluate(md, key, int64(j)).Status, key); skipped >= 0 {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, allowed)
}

func TestRegistry_RemoveStartsFresh(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("removed")
	md := metadata.NewMutable()
	md.Add(metadata.LogEveryN, 5)

	_, err := r.CheckStatus(r.Evaluate(md, key, 0).Status, key)
	require.NoError(t, err)
	assert.Equal(t, Disallow, r.Evaluate(md, key, 0).Status)
	require.Equal(t, 1, r.Len())

	r.Remove(key)
	assert.Zero(t, r.Len())
	// A fresh counter is pending again.
	assert.NotEqual(t, Disallow, r.Evaluate(md, key, 0).Status)
	r.Remove(logsite.Injected("never-seen"))
}

func TestEvaluate_PeriodCountsCounterSuppressions(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("period-counter")
	md := metadata.NewMutable()
	md.Add(metadata.LogEveryN, 2)
	md.Add(metadata.LogAtMostEvery, 10*time.Nanosecond)

	decision := r.Evaluate(md, key, 0)
	_, err := r.CheckStatus(decision.Status, key)
	require.NoError(t, err)

	// Due by duration, suppressed by the counter.
	decision = r.Evaluate(md, key, 10)
	assert.Equal(t, Disallow, decision.Status)
	_, _ = r.CheckStatus(decision.Status, key)

	decision = r.Evaluate(md, key, 11)
	require.NotNil(t, decision.Period)
	assert.Equal(t, "10ns [skipped: 1]", decision.Period.String())
	skipped, err := r.CheckStatus(decision.Status, key)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
}
