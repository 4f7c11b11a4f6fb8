package metrics

import (
	slmetrics "github.com/gxo-labs/scopelog/pkg/scopelog/v1/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRegistryProvider is a RegistryProvider owning a dedicated
// registry, isolated from prometheus.DefaultRegisterer.
type PrometheusRegistryProvider struct {
	registry *prometheus.Registry
}

// NewPrometheusRegistryProvider creates a provider with an empty registry.
func NewPrometheusRegistryProvider() *PrometheusRegistryProvider {
	return &PrometheusRegistryProvider{registry: prometheus.NewRegistry()}
}

// Registry returns the underlying registry.
func (p *PrometheusRegistryProvider) Registry() *prometheus.Registry {
	return p.registry
}

var _ slmetrics.RegistryProvider = (*PrometheusRegistryProvider)(nil)
