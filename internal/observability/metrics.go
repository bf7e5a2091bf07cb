// Package observability owns the Prometheus registry shared by the stores
// and the read API.
package observability

import (
	"fmt"
	stdlog "log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vtttools/mediastore/internal/logger"
	"github.com/vtttools/mediastore/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Store    *metrics.StoreMetrics
	HTTP     *metrics.HTTPMetrics
}

// NewMetrics creates a new instance of Metrics on a private registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	storeMetrics, err := metrics.NewStoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create store metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	GetLogger().Debug("metrics registry initialized")

	return &Metrics{
		registry: registry,
		Store:    storeMetrics,
		HTTP:     httpMetrics,
	}, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      stdlog.New(logWriter{}, "", 0),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// logWriter forwards promhttp error output to the module logger.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	GetLogger().Warn("metrics handler error", logger.String("message", string(p)))
	return len(p), nil
}
