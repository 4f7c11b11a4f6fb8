// Package events distributes statement events from loggers to listeners.
package events

import (
	"sync"

	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/events"
	sllog "github.com/gxo-labs/scopelog/pkg/scopelog/v1/log"
)

// ChannelEventBus delivers events through a buffered channel. Emission never
// blocks: when the buffer is full the event is dropped and counted.
type ChannelEventBus struct {
	channel chan events.Event
	log     sllog.Logger

	mu     sync.RWMutex
	closed bool

	// onDrop, when set, is called for every dropped event.
	onDrop func(events.Event)
}

// NewChannelEventBus creates a bus buffering up to bufferSize events; a
// non-positive size selects a default. It panics if log is nil.
func NewChannelEventBus(bufferSize int, log sllog.Logger) *ChannelEventBus {
	const defaultBufferSize = 1024
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if log == nil {
		panic("ChannelEventBus requires a non-nil logger")
	}
	bus := &ChannelEventBus{
		channel: make(chan events.Event, bufferSize),
		log:     log.With("component", "ChannelEventBus"),
	}
	bus.log.Debugf("ChannelEventBus initialized with buffer size %d", bufferSize)
	return bus
}

// OnDrop registers fn to observe dropped events. It must be called before
// the bus is shared.
func (c *ChannelEventBus) OnDrop(fn func(events.Event)) {
	c.onDrop = fn
}

// Emit queues event for delivery, dropping it if the buffer is full or the
// bus is closed.
func (c *ChannelEventBus) Emit(event events.Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.channel <- event:
	default:
		if c.onDrop != nil {
			c.onDrop(event)
		}
	}
}

// Events returns the channel listeners consume from. It is closed by Close.
func (c *ChannelEventBus) Events() <-chan events.Event {
	return c.channel
}

// Close stops accepting events and closes the channel once in-flight
// emissions have finished. Close is idempotent.
func (c *ChannelEventBus) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.channel)
	c.log.Debugf("ChannelEventBus closed.")
}

var _ events.Bus = (*ChannelEventBus)(nil)
