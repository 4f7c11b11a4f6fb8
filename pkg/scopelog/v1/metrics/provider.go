package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegistryProvider gives access to the Prometheus registry holding the
// scopelog metrics, so applications can expose them alongside their own.
type RegistryProvider interface {
	// Registry returns the registry scopelog collectors are registered with.
	Registry() *prometheus.Registry
}
