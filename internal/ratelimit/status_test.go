package ratelimit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatus struct {
	err      error
	resets   int
	released int
}

func (f *fakeStatus) Reset() error {
	f.resets++
	return f.err
}

func (f *fakeStatus) release() { f.released++ }

func TestCombine_Identities(t *testing.T) {
	s := &fakeStatus{}

	assert.Nil(t, Combine(nil, nil))
	assert.Same(t, s, Combine(nil, s))
	assert.Same(t, s, Combine(s, nil))
	assert.Same(t, s, Combine(Allow, s))
	assert.Same(t, s, Combine(s, Allow))
	assert.Equal(t, Allow, Combine(Allow, nil))
	assert.Equal(t, Allow, Combine(Allow, Allow))
}

func TestCombine_DisallowAbsorbs(t *testing.T) {
	s := &fakeStatus{}
	composite := Combine(&fakeStatus{}, &fakeStatus{})

	for _, other := range []Status{nil, Allow, Disallow, s, composite} {
		assert.Equal(t, Disallow, Combine(Disallow, other))
		assert.Equal(t, Disallow, Combine(other, Disallow))
	}
}

func TestCombine_StatefulPairResetsBoth(t *testing.T) {
	a, b := &fakeStatus{}, &fakeStatus{}

	combinedStatus := Combine(a, b)
	require.NotSame(t, a, combinedStatus)
	require.NotSame(t, b, combinedStatus)

	assert.NoError(t, combinedStatus.Reset())
	assert.Equal(t, 1, a.resets)
	assert.Equal(t, 1, b.resets)
}

func TestCombine_ResetErrors(t *testing.T) {
	errFirst := errors.New("first")
	errSecond := errors.New("second")

	t.Run("first error wins", func(t *testing.T) {
		a := &fakeStatus{err: errFirst}
		b := &fakeStatus{err: errSecond}
		err := Combine(a, b).Reset()
		assert.ErrorIs(t, err, errFirst)
		assert.Equal(t, 1, b.resets, "second status must still be reset")
	})

	t.Run("second error surfaces", func(t *testing.T) {
		a := &fakeStatus{}
		b := &fakeStatus{err: errSecond}
		err := Combine(a, b).Reset()
		assert.ErrorIs(t, err, errSecond)
		assert.Equal(t, 1, a.resets)
	})
}

func TestCombine_Release(t *testing.T) {
	a, b, c := &fakeStatus{}, &fakeStatus{}, &fakeStatus{}

	release(Combine(Combine(a, b), c))
	release(Allow)
	release(nil)

	assert.Equal(t, 1, a.released)
	assert.Equal(t, 1, b.released)
	assert.Equal(t, 1, c.released)
	assert.Zero(t, a.resets)
}

func TestSentinels_ResetIsNoOp(t *testing.T) {
	assert.NoError(t, Allow.Reset())
	assert.NoError(t, Disallow.Reset())
	assert.Equal(t, "ALLOW", Allow.(*sentinel).String())
	assert.Equal(t, "DISALLOW", Disallow.(*sentinel).String())
}
