package events

import "github.com/gxo-labs/scopelog/pkg/scopelog/v1/events"

// NoOpEventBus discards every event. Loggers use it when no bus is configured.
type NoOpEventBus struct{}

// NewNoOpEventBus returns a Bus that discards events.
func NewNoOpEventBus() events.Bus {
	return &NoOpEventBus{}
}

// Emit does nothing.
func (n *NoOpEventBus) Emit(events.Event) {}

var _ events.Bus = (*NoOpEventBus)(nil)
