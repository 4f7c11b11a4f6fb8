package ratelimit

import (
	"testing"

	"github.com/gxo-labs/scopelog/internal/logsite"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
	"github.com/stretchr/testify/assert"
)

// scriptedRandom returns hits (0) at the given call indexes and misses otherwise.
func scriptedRandom(hits ...int) func(int) int {
	set := make(map[int]bool, len(hits))
	for _, h := range hits {
		set[h] = true
	}
	calls := 0
	return func(n int) int {
		defer func() { calls++ }()
		if set[calls] {
			return 0
		}
		return n - 1
	}
}

func sampleEveryN(n int) *metadata.Mutable {
	md := metadata.NewMutable()
	md.Add(metadata.LogSampleEveryN, n)
	return md
}

func TestCheckSampling_LogsOnHits(t *testing.T) {
	r := NewRegistry(WithRandom(scriptedRandom(1, 4)))
	key := logsite.Injected("sampling")
	md := sampleEveryN(5)

	var logged []int
	for i := 0; i < 6; i++ {
		if skipped, _ := r.CheckStatus(r.CheckSampling(md, key), key); skipped >= 0 {
			logged = append(logged, i)
		}
	}

	assert.Equal(t, []int{1, 4}, logged)
}

func TestCheckSampling_KeepsHitWhileSuppressedElsewhere(t *testing.T) {
	r := NewRegistry(WithRandom(scriptedRandom(0)))
	key := logsite.Injected("sampling-pending")
	md := sampleEveryN(5)

	status := r.CheckSampling(md, key)
	assert.NotEqual(t, Disallow, status)
	release(status)

	assert.NotEqual(t, Disallow, r.CheckSampling(md, key), "hit survives until a statement consumes it")
}

func TestCheckSampling_DirectiveEdgeCases(t *testing.T) {
	r := NewRegistry()
	key := logsite.Injected("sampling-edges")

	assert.Nil(t, r.CheckSampling(metadata.None(), key))
	assert.Equal(t, Allow, r.CheckSampling(sampleEveryN(1), key))
}
