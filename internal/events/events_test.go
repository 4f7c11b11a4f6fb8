package events_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gxo-labs/scopelog/internal/events"
	"github.com/gxo-labs/scopelog/internal/logger"
	slevents "github.com/gxo-labs/scopelog/pkg/scopelog/v1/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRecorder struct {
	mu     sync.Mutex
	events []slevents.Event
}

func (r *recordingRecorder) Record(e slevents.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func testLogger() *bytes.Buffer { return &bytes.Buffer{} }

func TestChannelEventBus_DropsWhenFull(t *testing.T) {
	bus := events.NewChannelEventBus(2, logger.NewLogger("info", "text", testLogger()))
	dropped := 0
	bus.OnDrop(func(slevents.Event) { dropped++ })

	for i := 0; i < 5; i++ {
		bus.Emit(slevents.Event{Type: slevents.StatementLogged})
	}

	assert.Equal(t, 3, dropped)
	assert.Len(t, bus.Events(), 2)
}

func TestChannelEventBus_CloseIsIdempotent(t *testing.T) {
	bus := events.NewChannelEventBus(1, logger.NewLogger("info", "text", testLogger()))

	bus.Close()
	bus.Close()
	bus.Emit(slevents.Event{Type: slevents.StatementLogged})

	_, ok := <-bus.Events()
	assert.False(t, ok)
}

func TestNewChannelEventBus_RequiresLogger(t *testing.T) {
	assert.Panics(t, func() { events.NewChannelEventBus(1, nil) })
}

func TestMetricsEventListener_DrainsBus(t *testing.T) {
	log := logger.NewLogger("info", "text", testLogger())
	bus := events.NewChannelEventBus(16, log)
	recorder := &recordingRecorder{}
	listener := events.NewMetricsEventListener(bus, recorder, log)

	done := make(chan struct{})
	go func() {
		listener.Start(context.Background())
		close(done)
	}()

	for i := 0; i < 10; i++ {
		bus.Emit(slevents.Event{Type: slevents.StatementSuppressed, Level: "INFO"})
	}
	bus.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop after the bus was closed")
	}
	assert.Equal(t, 10, recorder.count())
}

func TestMetricsEventListener_StopsOnCancel(t *testing.T) {
	log := logger.NewLogger("info", "text", testLogger())
	bus := events.NewChannelEventBus(1, log)
	listener := events.NewMetricsEventListener(bus, &recordingRecorder{}, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		listener.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop after cancellation")
	}
	require.NotPanics(t, func() { events.NewNoOpEventBus().Emit(slevents.Event{}) })
}
