// Package metrics exports scopelog activity as Prometheus metrics.
package metrics

import (
	"errors"

	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/events"
	sllog "github.com/gxo-labs/scopelog/pkg/scopelog/v1/log"
	slmetrics "github.com/gxo-labs/scopelog/pkg/scopelog/v1/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values of scopelog_statements_total.
const (
	OutcomeLogged     = "logged"
	OutcomeSuppressed = "suppressed"
)

// Collector holds the scopelog metrics and updates them from statement events.
type Collector struct {
	statements    *prometheus.CounterVec
	forced        prometheus.Counter
	resetErrors   prometheus.Counter
	droppedEvents prometheus.Counter
}

// NewCollector creates the scopelog metrics and registers them with the
// provider's registry. sites, when non-nil, reports the number of tracked
// log sites. Metrics already registered by another Collector are shared.
func NewCollector(provider slmetrics.RegistryProvider, sites func() int, log sllog.Logger) *Collector {
	if provider == nil || log == nil {
		panic("metrics collector requires a non-nil RegistryProvider and Logger")
	}
	log = log.With("component", "MetricsCollector")
	reg := provider.Registry()

	c := &Collector{
		statements: register(reg, log, prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "scopelog_statements_total", Help: "Log statements by level and rate-limit outcome."},
			[]string{"level", "outcome"},
		)),
		forced: register(reg, log, prometheus.NewCounter(
			prometheus.CounterOpts{Name: "scopelog_forced_total", Help: "Log statements enabled only by a scope log level map."},
		)),
		resetErrors: register(reg, log, prometheus.NewCounter(
			prometheus.CounterOpts{Name: "scopelog_reset_errors_total", Help: "Rate limiter resets that returned an error."},
		)),
		droppedEvents: register(reg, log, prometheus.NewCounter(
			prometheus.CounterOpts{Name: "scopelog_events_dropped_total", Help: "Statement events dropped because the event buffer was full."},
		)),
	}
	if sites != nil {
		register(reg, log, prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: "scopelog_log_sites", Help: "Log sites with rate-limiter state."},
			func() float64 { return float64(sites()) },
		))
	}
	log.Debugf("Prometheus metrics initialized and registered.")
	return c
}

// register adds collector to reg. If an equal collector is already present,
// the registered one is returned instead.
func register[C prometheus.Collector](reg prometheus.Registerer, log sllog.Logger, collector C) C {
	err := reg.Register(collector)
	if err == nil {
		return collector
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing
		}
	}
	log.Warnf("Failed to register metric collector: %v", err)
	return collector
}

// Record updates the metrics for one event.
func (c *Collector) Record(event events.Event) {
	switch event.Type {
	case events.StatementLogged:
		c.statements.WithLabelValues(event.Level, OutcomeLogged).Inc()
	case events.StatementSuppressed:
		c.statements.WithLabelValues(event.Level, OutcomeSuppressed).Inc()
	case events.StatementForced:
		c.forced.Inc()
	case events.ResetFailed:
		c.resetErrors.Inc()
	}
}

// EventDropped counts an event lost before reaching the collector.
func (c *Collector) EventDropped() {
	c.droppedEvents.Inc()
}

// Emit records event synchronously, so a Collector can serve directly as an
// events.Bus.
func (c *Collector) Emit(event events.Event) {
	c.Record(event)
}

var _ events.Bus = (*Collector)(nil)
