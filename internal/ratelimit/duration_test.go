package ratelimit

import (
	"testing"
	"time"

	"github.com/gxo-labs/scopelog/internal/logsite"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atMostEvery(d time.Duration) *metadata.Mutable {
	md := metadata.NewMutable()
	md.Add(metadata.LogAtMostEvery, d)
	return md
}

func TestCheckDuration_PeriodBoundaries(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("duration")
	period := time.Second
	md := atMostEvery(period)
	t0 := int64(42 * time.Second)
	p := period.Nanoseconds()

	logs := func(now int64) bool {
		skipped, err := r.CheckStatus(r.CheckDuration(md, key, now), key)
		require.NoError(t, err)
		return skipped >= 0
	}

	assert.True(t, logs(t0))
	assert.False(t, logs(t0+p-1))
	assert.True(t, logs(t0+p))
	assert.False(t, logs(t0+p+1))
	assert.True(t, logs(t0+3*p))
}

func TestCheckDuration_UnalignedTimestampsUsePeriodBoundaries(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("aligned")
	md := atMostEvery(time.Second)
	t0 := int64(10*time.Second + 700*time.Millisecond)

	assert.True(t, r.ShouldLogForTimestamp(md, key, t0))
	// The next period starts at 11s, not at t0 + 1s.
	assert.True(t, r.ShouldLogForTimestamp(md, key, int64(11*time.Second)))
	assert.False(t, r.ShouldLogForTimestamp(md, key, int64(11*time.Second+999*time.Millisecond)))
}

func TestCheckDuration_ClockSetBackReanchors(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("set-back")
	md := atMostEvery(time.Second)
	p := time.Second.Nanoseconds()
	t0 := int64(2 * time.Hour)

	assert.True(t, r.ShouldLogForTimestamp(md, key, t0))
	// Stepping back by less than a period only delays the next period.
	assert.False(t, r.ShouldLogForTimestamp(md, key, t0-p/2))
	assert.True(t, r.ShouldLogForTimestamp(md, key, t0+p))

	back := t0 - int64(time.Hour)
	assert.True(t, r.ShouldLogForTimestamp(md, key, back))
	assert.False(t, r.ShouldLogForTimestamp(md, key, back+p-1))
	assert.True(t, r.ShouldLogForTimestamp(md, key, back+p))
}

func TestDurationLimiter_ResetWithoutClaimIsNoOp(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("reset-twice")
	md := atMostEvery(time.Second)

	status := r.CheckDuration(md, key, int64(5*time.Second))
	require.NotEqual(t, Disallow, status)
	require.NoError(t, status.Reset())
	require.NoError(t, status.Reset())

	assert.Equal(t, Disallow, r.CheckDuration(md, key, int64(5*time.Second+1)))
	assert.NotEqual(t, Disallow, r.CheckDuration(md, key, int64(6*time.Second)))
}

func TestCheckDuration_NoDirectiveAndNonPositivePeriod(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("nonpositive")

	assert.Nil(t, r.CheckDuration(metadata.None(), key, 0))
	assert.Equal(t, Allow, r.CheckDuration(atMostEvery(0), key, 5))
	assert.Equal(t, Allow, r.CheckDuration(atMostEvery(-time.Second), key, 5))
	assert.True(t, r.ShouldLogForTimestamp(metadata.None(), key, 10))
}

func TestCheckDuration_NegativeTimestampPanics(t *testing.T) {
	r := NewRegistry()

	assert.Panics(t, func() {
		r.CheckDuration(atMostEvery(time.Second), logsite.Injected("negative"), -1)
	})
}

func TestEvaluate_PeriodReportsSkipped(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("period")
	md := atMostEvery(time.Minute)
	p := time.Minute.Nanoseconds()

	decision := r.Evaluate(md, key, 0)
	require.NotNil(t, decision.Period)
	assert.Equal(t, "1m0s", decision.Period.String())
	_, err := r.CheckStatus(decision.Status, key)
	require.NoError(t, err)

	for i := int64(1); i <= 3; i++ {
		assert.Equal(t, Disallow, r.Evaluate(md, key, i).Status)
		_, _ = r.CheckStatus(Disallow, key)
	}

	decision = r.Evaluate(md, key, p)
	require.NotNil(t, decision.Period)
	assert.Equal(t, "1m0s [skipped: 3]", decision.Period.String())
}

func TestPeriod_String(t *testing.T) {
	assert.Equal(t, "2s", Period{Duration: 2 * time.Second}.String())
	assert.Equal(t, "2s [skipped: 7]", Period{Duration: 2 * time.Second, Skipped: 7}.String())
}
