package render

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/livetree/pkg/vdom"
)

// MetricsConfig configures pass metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "livetree").
	Namespace string

	// Subsystem is the metrics subsystem (default: "render").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures pass metrics.
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

// WithBuckets sets the duration histogram buckets.
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
		Namespace: "livetree",
		Subsystem: "render",
		// Passes are usually sub-millisecond.
		Buckets:  prometheus.ExponentialBuckets(0.0001, 4, 8),
		Registry: prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors for render passes.
//
// Metrics collected:
//   - livetree_render_passes_total: passes by root, mode and status
//   - livetree_render_pass_duration_seconds: pass duration by root and mode
//   - livetree_render_mutations_total: render-target mutations by root
//   - livetree_render_replacements_total: subtrees rebuilt on tag or kind change
//   - livetree_render_loops_total: drains aborted with ErrRenderLoop
type Metrics struct {
	passes       *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	mutations    *prometheus.CounterVec
	replacements *prometheus.CounterVec
	loops        *prometheus.CounterVec
}

// NewMetrics registers the pass collectors. Registering twice on the same
// registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of render passes",
			ConstLabels: cfg.ConstLabels,
		}, []string{"root", "mode", "status"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Render pass duration in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"root", "mode"}),

		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "mutations_total",
			Help:        "Total number of render-target mutations applied",
			ConstLabels: cfg.ConstLabels,
		}, []string{"root"}),

		replacements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "replacements_total",
			Help:        "Total number of subtrees rebuilt because the tag or kind changed",
			ConstLabels: cfg.ConstLabels,
		}, []string{"root"}),

		loops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "loops_total",
			Help:        "Total number of drains aborted after too many follow-up passes",
			ConstLabels: cfg.ConstLabels,
		}, []string{"root"}),
	}
}

func (m *Metrics) observe(p Pass) {
	if m == nil {
		return
	}
	mode := p.Mode.String()
	m.passes.WithLabelValues(p.Root, mode, passStatus(p.Err)).Inc()
	m.duration.WithLabelValues(p.Root, mode).Observe(p.Duration.Seconds())
	m.mutations.WithLabelValues(p.Root).Add(float64(p.Stats.Mutations()))
	m.replacements.WithLabelValues(p.Root).Add(float64(p.Stats.Replaced))
}

func (m *Metrics) loop(root string) {
	if m == nil {
		return
	}
	m.loops.WithLabelValues(root).Inc()
}

// passStatus keeps the status label to a fixed set of values.
func passStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, vdom.ErrDisposal):
		return "disposal_error"
	default:
		return "error"
	}
}
