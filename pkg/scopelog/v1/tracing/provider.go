package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TracerProvider supplies the tracers used to attach log statements to spans
// and owns the exporter pipeline behind them.
type TracerProvider interface {
	// GetTracer returns a named tracer.
	GetTracer(name string, opts ...trace.TracerOption) trace.Tracer

	// Shutdown flushes buffered spans and releases the exporter. It is a no-op
	// for providers that export nothing.
	Shutdown(ctx context.Context) error
}
