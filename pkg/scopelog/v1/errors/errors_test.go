package errors_test

import (
	"errors"
	"fmt"
	"testing"

	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	cause := errors.New("boom")
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{"config without cause", slerrors.NewConfigError("bad format", nil), "configuration error: bad format"},
		{"config with cause", slerrors.NewConfigError("bad format", cause), "configuration error: bad format: boom"},
		{"validation", slerrors.NewValidationError("invalid tag name 'a b'", nil), "validation error: invalid tag name 'a b'"},
		{"lookup", slerrors.NewLookupError("group_by", "key is repeated"), "invalid lookup of key 'group_by': key is repeated"},
		{"context state", slerrors.NewInvalidContextStateError(cause), "invalid logging context state: boom"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestIsInvalidContextState(t *testing.T) {
	cause := errors.New("scope closed twice")
	wrapped := fmt.Errorf("request failed: %w", slerrors.NewInvalidContextStateError(cause))

	assert.True(t, slerrors.IsInvalidContextState(wrapped))
	assert.ErrorIs(t, wrapped, cause, "the teardown failure must remain reachable as the cause")
	assert.False(t, slerrors.IsInvalidContextState(cause))
	assert.False(t, slerrors.IsInvalidContextState(nil))
}
