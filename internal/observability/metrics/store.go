package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vtttools/mediastore/internal/logger"
)

// StoreMetrics contains the Prometheus metrics for store operations.
// A nil *StoreMetrics is a valid Recorder that records nothing.
type StoreMetrics struct {
	Saves              *prometheus.CounterVec
	BytesWritten       *prometheus.CounterVec
	Probes             *prometheus.CounterVec
	DiscoveryDuration  *prometheus.HistogramVec
	DiscoveredEntities *prometheus.GaugeVec
	registry           *prometheus.Registry
}

var _ Recorder = (*StoreMetrics)(nil)

// NewStoreMetrics creates a new instance of StoreMetrics and registers it
// with registry.
func NewStoreMetrics(registry *prometheus.Registry) (*StoreMetrics, error) {
	m := &StoreMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register store metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for StoreMetrics.
func (m *StoreMetrics) initMetrics() {
	m.Saves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_saves_total",
			Help: "Total number of files persisted.",
		},
		[]string{"store", "kind"}, // kind: image, prompt, metadata
	)

	m.BytesWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_bytes_written_total",
			Help: "Total number of payload bytes written.",
		},
		[]string{"store"},
	)

	m.Probes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediastore_probes_total",
			Help: "Total number of existence probes.",
		},
		[]string{"store", "result"}, // result: hit, miss
	)

	m.DiscoveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediastore_discovery_duration_seconds",
			Help:    "Duration of discovery walks in seconds.",
			Buckets: prometheus.ExponentialBuckets(BucketStart100us, BucketFactor2, BucketCount15), // 0.1ms to ~1.6s
		},
		[]string{"store", "op"},
	)

	m.DiscoveredEntities = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediastore_discovered_entities",
			Help: "Number of entities returned by the most recent discovery walk.",
		},
		[]string{"store"},
	)
}

// RecordSave implements Recorder.
func (m *StoreMetrics) RecordSave(store, kind string, bytes int) {
	if m == nil {
		return
	}
	m.Saves.WithLabelValues(store, kind).Inc()
	m.BytesWritten.WithLabelValues(store).Add(float64(bytes))
}

// RecordProbe implements Recorder.
func (m *StoreMetrics) RecordProbe(store, result string) {
	if m == nil {
		return
	}
	m.Probes.WithLabelValues(store, result).Inc()
}

// RecordDiscovery implements Recorder.
func (m *StoreMetrics) RecordDiscovery(store, op string, seconds float64, discovered int) {
	if m == nil {
		return
	}
	m.DiscoveryDuration.WithLabelValues(store, op).Observe(seconds)
	m.DiscoveredEntities.WithLabelValues(store).Set(float64(discovered))
}

// LastDiscovered returns the gauge value for store.
func (m *StoreMetrics) LastDiscovered(store string) float64 {
	if m == nil {
		return 0
	}
	metric := &dto.Metric{}
	if err := m.DiscoveredEntities.WithLabelValues(store).Write(metric); err != nil {
		getLogger().Warn("failed to read discovered entities gauge", logger.Error(err))
		return 0
	}
	if metric.Gauge != nil && metric.Gauge.Value != nil {
		return *metric.Gauge.Value
	}
	return 0
}

// Collect implements the prometheus.Collector interface.
func (m *StoreMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Saves.Collect(ch)
	m.BytesWritten.Collect(ch)
	m.Probes.Collect(ch)
	m.DiscoveryDuration.Collect(ch)
	m.DiscoveredEntities.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *StoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Saves.Describe(ch)
	m.BytesWritten.Describe(ch)
	m.Probes.Describe(ch)
	m.DiscoveryDuration.Describe(ch)
	m.DiscoveredEntities.Describe(ch)
}
