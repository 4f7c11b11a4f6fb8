package events

import "time"

// EventType classifies what happened to a log statement.
type EventType string

const (
	// StatementLogged is emitted when a statement passed its rate limits and
	// was handed to the backend.
	StatementLogged EventType = "StatementLogged"
	// StatementSuppressed is emitted when a rate limit dropped a statement.
	StatementSuppressed EventType = "StatementSuppressed"
	// StatementForced follows StatementLogged for statements enabled only by
	// a log level map.
	StatementForced EventType = "StatementForced"
	// ResetFailed is emitted when rearming a rate limiter returned an error.
	ResetFailed EventType = "ResetFailed"
)

// Event describes the fate of one log statement.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	// Logger is the name of the logger that produced the statement.
	Logger string `json:"logger"`
	// Level is the canonical name of the statement's level.
	Level string `json:"level"`
	// Site identifies the log site key of the statement.
	Site string `json:"site"`
	// Skipped is the number of statements suppressed at the site before this
	// one was logged. It is only set for StatementLogged.
	Skipped int `json:"skipped,omitempty"`
	// Payload carries type-specific details, such as the reset error message.
	Payload map[string]any `json:"payload,omitempty"`
}

// Bus publishes statement events. Emit is called on the logging path and
// must not block.
type Bus interface {
	Emit(event Event)
}
