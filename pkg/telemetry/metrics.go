package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded by ObserveManage.
const (
	OutcomeMount  = "mount"
	OutcomeUpdate = "update"
	OutcomeError  = "error"
)

// MetricsConfig configures the metrics collector.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "isopage").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the metrics collector.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "isopage",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the page lifecycle collectors.
type Metrics struct {
	manageTotal    *prometheus.CounterVec
	manageDuration *prometheus.HistogramVec
	renderTotal    *prometheus.CounterVec
	patchesSent    prometheus.Counter
	liveSessions   prometheus.Gauge
}

// NewMetrics registers the collectors. Registering twice on the same
// registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		manageTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "manage_total",
			Help:        "Total number of page navigations by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"path", "outcome"}),

		manageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "manage_duration_seconds",
			Help:        "Page navigation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"path"}),

		renderTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "render_total",
			Help:        "Total number of renderer calls",
			ConstLabels: config.ConstLabels,
		}, []string{"variant", "operation", "status"}),

		patchesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "patches_sent_total",
			Help:        "Total number of patches sent to live sessions",
			ConstLabels: config.ConstLabels,
		}),

		liveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "live_sessions",
			Help:        "Number of open live sessions",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// ObserveManage records one navigation.
func (m *Metrics) ObserveManage(path, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	if path == "" {
		path = "/"
	}
	m.manageTotal.WithLabelValues(path, outcome).Inc()
	m.manageDuration.WithLabelValues(path).Observe(d.Seconds())
}

// ObserveRender records one renderer call.
func (m *Metrics) ObserveRender(variant, operation string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.renderTotal.WithLabelValues(variant, operation, status).Inc()
}

// RecordPatches records patches sent to a live session.
func (m *Metrics) RecordPatches(count int) {
	if m == nil {
		return
	}
	m.patchesSent.Add(float64(count))
}

// SessionOpened records a new live session.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.liveSessions.Inc()
}

// SessionClosed records a closed live session.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.liveSessions.Dec()
}
