// Package metrics provides Prometheus metrics collection for shelfd
// components.
//
// All metrics are optional - if the global registry is never initialized,
// constructors return no-op implementations with zero overhead, so the
// repository and HTTP server can run with or without metrics enabled.
//
// Usage:
//
//	// Initialize global registry (typically in main.go, when enabled)
//	metrics.InitRegistry()
//
//	// Create metrics instances for components
//	repoMetrics := metrics.NewRepositoryMetrics()
//	httpMetrics := metrics.NewHTTPMetrics()
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// registry is the global Prometheus registry for all shelfd metrics.
	// Write-once via registryOnce, read-many afterwards.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// Must be called before creating any metrics instances. Safe to call
// multiple times - subsequent calls are ignored.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global Prometheus registry, or nil if metrics are
// disabled (InitRegistry never called).
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true if metrics collection is enabled.
func IsEnabled() bool {
	return GetRegistry() != nil
}
