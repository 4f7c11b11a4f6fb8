// Package ratelimit decides whether a log statement fires given the rate
// limits configured on its call site. Each limiter returns a Status; statuses
// are combined, and the combined status is reset exactly once when the
// statement is actually logged, which rearms every limiter involved.
package ratelimit

// Status is the outcome of one rate-limiting policy for one log attempt.
// A nil Status means "no limiter configured", which is distinct from Allow.
type Status interface {
	// Reset rearms the limiter after the statement was logged.
	Reset() error
}

type sentinel struct {
	name string
}

func (s *sentinel) Reset() error   { return nil }
func (s *sentinel) String() string { return s.name }

var (
	// Allow permits logging and holds no state.
	Allow Status = &sentinel{name: "ALLOW"}
	// Disallow suppresses logging. It absorbs every other status under Combine.
	Disallow Status = &sentinel{name: "DISALLOW"}
)

// claimer is implemented by stateful statuses that reserve their log slot
// when they allow. A reserved slot is handed back with release when the
// combined decision ends up suppressing the statement.
type claimer interface {
	release()
}

// combined resets both of its statuses.
type combined struct {
	first, second Status
}

// Reset always attempts both resets. The first error encountered is
// returned; an error from the second reset is dropped if the first failed.
func (c *combined) Reset() error {
	firstErr := c.first.Reset()
	secondErr := c.second.Reset()
	if firstErr != nil {
		return firstErr
	}
	return secondErr
}

func (c *combined) release() {
	release(c.first)
	release(c.second)
}

// Combine merges two statuses. Disallow absorbs everything, nil and Allow
// are identities, and two stateful statuses yield a status resetting both.
func Combine(a, b Status) Status {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a == Disallow || b == Allow {
		return a
	}
	if b == Disallow || a == Allow {
		return b
	}
	return &combined{first: a, second: b}
}

func release(s Status) {
	if c, ok := s.(claimer); ok {
		c.release()
	}
}
