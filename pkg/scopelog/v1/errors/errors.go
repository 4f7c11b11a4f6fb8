package errors

import (
	"errors"
	"fmt"
)

// --- scopelog Core Error Types ---

// ConfigError represents an error encountered during the loading, parsing,
// or validation of a logging configuration document or logger options.
type ConfigError struct {
	Message string
	Cause   error
}

func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{Message: message, Cause: cause}
}
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}
func (e *ConfigError) Unwrap() error { return e.Cause }

// ValidationError indicates that some input (e.g., a tag name, a level name,
// a negative timestamp) failed validation at the point where it was supplied.
type ValidationError struct {
	Message string
	Cause   error
}

func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{Message: message, Cause: cause}
}
func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}
func (e *ValidationError) Unwrap() error { return e.Cause }

// LookupError signals misuse of a lookup API, such as requesting a single
// value for a metadata key that may legitimately hold several.
type LookupError struct {
	Key    string
	Reason string
}

func NewLookupError(key, reason string) *LookupError {
	return &LookupError{Key: key, Reason: reason}
}
func (e *LookupError) Error() string {
	return fmt.Sprintf("invalid lookup of key '%s': %s", e.Key, e.Reason)
}

// InvalidContextStateError is returned when tearing down a logging scope failed
// while the scope body itself succeeded. It lets callers tell a failure of their
// own code apart from a failure of the context mechanism.
type InvalidContextStateError struct {
	Cause error
}

func NewInvalidContextStateError(cause error) *InvalidContextStateError {
	return &InvalidContextStateError{Cause: cause}
}
func (e *InvalidContextStateError) Error() string {
	return fmt.Sprintf("invalid logging context state: %v", e.Cause)
}
func (e *InvalidContextStateError) Unwrap() error { return e.Cause }

// IsInvalidContextState checks if an error is an InvalidContextStateError using errors.As.
func IsInvalidContextState(err error) bool {
	var ctxErr *InvalidContextStateError
	return errors.As(err, &ctxErr)
}
