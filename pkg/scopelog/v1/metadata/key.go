// Package metadata defines metadata keys and the two metadata containers used
// by scopelog: Scope, the immutable metadata attached to a logging scope, and
// Mutable, the metadata accumulated by a single log statement.
package metadata

import (
	"fmt"
	"time"

	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
)

// Key identifies a metadata value. Keys are compared by identity, so two keys
// created with the same label are distinct. A repeated key may legitimately
// appear several times in one container.
type Key struct {
	label    string
	repeated bool
}

// NewKey returns a key that holds at most one effective value per container.
func NewKey(label string) *Key {
	return newKey(label, false)
}

// NewRepeatedKey returns a key whose values accumulate.
func NewRepeatedKey(label string) *Key {
	return newKey(label, true)
}

func newKey(label string, repeated bool) *Key {
	if label == "" {
		panic(slerrors.NewValidationError("metadata key label cannot be empty", nil))
	}
	return &Key{label: label, repeated: repeated}
}

// Label returns the name used when the key is rendered in a log record.
func (k *Key) Label() string { return k.label }

// CanRepeat reports whether the key accepts multiple values.
func (k *Key) CanRepeat() bool { return k.repeated }

func (k *Key) String() string {
	if k.repeated {
		return fmt.Sprintf("%s[*]", k.label)
	}
	return k.label
}

// Standard keys understood by the rate limiters and the front-end.
var (
	// LogEveryN (int) limits a log site to one statement every N invocations.
	LogEveryN = NewKey("ratelimit_count")
	// LogAtMostEvery (time.Duration) limits a log site to one statement per period.
	LogAtMostEvery = NewKey("ratelimit_period")
	// LogSampleEveryN (int) logs on average once every N invocations, at random.
	LogSampleEveryN = NewKey("sampling_count")
	// GroupBy (any comparable) specializes the log site key so rate limiting
	// is tracked separately per distinct value.
	GroupBy = NewRepeatedKey("group_by")
	// WasForced (bool) marks statements logged only because a scope forced them.
	WasForced = NewKey("forced")
	// Cause (error) attaches an error to a statement.
	Cause = NewKey("cause")
	// SkippedCount (int) reports suppressed statements since the last one logged.
	SkippedCount = NewKey("skipped")
)

// Metadata is a read-only, ordered sequence of key/value entries.
type Metadata interface {
	// Size returns the number of entries.
	Size() int
	// KeyAt returns the key of the entry at index i.
	KeyAt(i int) *Key
	// ValueAt returns the value of the entry at index i.
	ValueAt(i int) any
	// FindValue returns the most recently added value for a non-repeated key,
	// or nil. It panics with a LookupError when key is repeated.
	FindValue(key *Key) any
}

// Get returns the value stored under key converted to T. The boolean is false
// when the key is absent or holds a value of another type.
func Get[T any](m Metadata, key *Key) (T, bool) {
	var zero T
	if m == nil {
		return zero, false
	}
	v, ok := m.FindValue(key).(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// EveryN is a convenience accessor for LogEveryN.
func EveryN(m Metadata) (int, bool) { return Get[int](m, LogEveryN) }

// AtMostEvery is a convenience accessor for LogAtMostEvery.
func AtMostEvery(m Metadata) (time.Duration, bool) { return Get[time.Duration](m, LogAtMostEvery) }

func findLast(m Metadata, key *Key) any {
	if key.repeated {
		panic(slerrors.NewLookupError(key.label, "cannot look up a single value for a repeated key, iterate instead"))
	}
	for i := m.Size() - 1; i >= 0; i-- {
		if m.KeyAt(i) == key {
			return m.ValueAt(i)
		}
	}
	return nil
}

func findAll(m Metadata, key *Key) []any {
	var out []any
	for i := 0; i < m.Size(); i++ {
		if m.KeyAt(i) == key {
			out = append(out, m.ValueAt(i))
		}
	}
	return out
}
