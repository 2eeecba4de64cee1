// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for shadow documents.
//
// Both halves are optional. A nil *Metrics records nothing and a nil
// *Tracer starts no spans, so callers never need to guard their calls.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/shadowdom/pkg/live"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "shadowdom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for parse and reconcile durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
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
		Namespace: "shadowdom",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors for one registry.
type Metrics struct {
	hostOps           *prometheus.CounterVec
	reconcileTotal    *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	parseTotal        *prometheus.CounterVec
	parseDuration     prometheus.Histogram
	nodes             prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
//
// Metrics collected:
//   - shadowdom_host_ops_total: live document calls by op
//   - shadowdom_reconcile_total: reconciliations by result (ok, error)
//   - shadowdom_reconcile_duration_seconds: reconciliation latency
//   - shadowdom_parse_total: markup parses by result (ok, error)
//   - shadowdom_parse_duration_seconds: parse latency
//   - shadowdom_shadow_nodes: nodes currently held by the registry
//
// Registering twice on the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		hostOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_ops_total",
			Help:        "Total number of live document calls by operation",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		reconcileTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reconcile_total",
			Help:        "Total number of reconciliations by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		reconcileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reconcile_duration_seconds",
			Help:        "Reconciliation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		parseTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "parse_total",
			Help:        "Total number of markup parses by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		parseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "parse_duration_seconds",
			Help:        "Markup parse duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		nodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "shadow_nodes",
			Help:        "Number of shadow nodes held by the registry",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// HostOp counts one live document call.
func (m *Metrics) HostOp(op live.Op) {
	if m == nil {
		return
	}
	m.hostOps.WithLabelValues(string(op)).Inc()
}

// ObserveParse records one parse.
func (m *Metrics) ObserveParse(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.parseTotal.WithLabelValues(result(err)).Inc()
	m.parseDuration.Observe(d.Seconds())
}

// ObserveReconcile records one reconciliation.
func (m *Metrics) ObserveReconcile(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.reconcileTotal.WithLabelValues(result(err)).Inc()
	m.reconcileDuration.Observe(d.Seconds())
}

// SetNodes sets the registry size gauge.
func (m *Metrics) SetNodes(n int) {
	if m == nil {
		return
	}
	m.nodes.Set(float64(n))
}
