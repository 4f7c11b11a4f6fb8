package events

import (
	"context"

	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/events"
	sllog "github.com/gxo-labs/scopelog/pkg/scopelog/v1/log"
)

// Recorder consumes events one at a time. *metrics.Collector implements it.
type Recorder interface {
	Record(event events.Event)
}

// MetricsEventListener drains a ChannelEventBus into a Recorder.
type MetricsEventListener struct {
	bus      *ChannelEventBus
	recorder Recorder
	log      sllog.Logger
}

// NewMetricsEventListener creates a listener. It panics on nil dependencies.
func NewMetricsEventListener(bus *ChannelEventBus, recorder Recorder, log sllog.Logger) *MetricsEventListener {
	if bus == nil || recorder == nil || log == nil {
		panic("MetricsEventListener requires a non-nil ChannelEventBus, Recorder and Logger")
	}
	return &MetricsEventListener{
		bus:      bus,
		recorder: recorder,
		log:      log.With("component", "MetricsEventListener"),
	}
}

// Start consumes events until the bus is closed or ctx is done. It blocks;
// run it in its own goroutine.
func (l *MetricsEventListener) Start(ctx context.Context) {
	l.log.Debugf("Starting metrics event listener...")
	for {
		select {
		case event, ok := <-l.bus.Events():
			if !ok {
				l.log.Debugf("Event bus channel closed, stopping listener.")
				return
			}
			l.recorder.Record(event)
		case <-ctx.Done():
			l.log.Debugf("Context cancelled, stopping metrics event listener.")
			return
		}
	}
}
