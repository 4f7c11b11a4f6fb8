package v1

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonotonicNanos(t *testing.T) {
	prev := monotonicNanos()
	assert.GreaterOrEqual(t, prev, int64(0))
	for i := 0; i < 1000; i++ {
		now := monotonicNanos()
		assert.GreaterOrEqual(t, now, prev)
		prev = now
	}
}
