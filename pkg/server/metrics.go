package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/livetree/pkg/protocol"
)

// MetricsConfig configures stream metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "livetree").
	Namespace string

	// Subsystem is the metrics subsystem (default: "server").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures stream metrics.
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

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the Prometheus collectors for the stream.
//
// Metrics collected:
//   - livetree_server_subscribers: connected subscribers
//   - livetree_server_frames_sent_total: frames written by frame type
//   - livetree_server_bytes_sent_total: bytes written to subscribers
//   - livetree_server_subscribers_dropped_total: subscribers dropped for falling behind
//   - livetree_server_dispatches_total: dispatch requests by status
type Metrics struct {
	subscribers prometheus.Gauge
	frames      *prometheus.CounterVec
	bytes       prometheus.Counter
	dropped     prometheus.Counter
	dispatches  *prometheus.CounterVec
}

// NewMetrics registers the stream collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := MetricsConfig{
		Namespace: "livetree",
		Subsystem: "server",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "subscribers",
			Help:        "Number of connected stream subscribers",
			ConstLabels: cfg.ConstLabels,
		}),

		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "frames_sent_total",
			Help:        "Total number of frames written to subscribers",
			ConstLabels: cfg.ConstLabels,
		}, []string{"type"}),

		bytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "bytes_sent_total",
			Help:        "Total number of bytes written to subscribers",
			ConstLabels: cfg.ConstLabels,
		}),

		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "subscribers_dropped_total",
			Help:        "Total number of subscribers dropped for falling behind",
			ConstLabels: cfg.ConstLabels,
		}),

		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total number of dispatch requests",
			ConstLabels: cfg.ConstLabels,
		}, []string{"status"}),
	}
}

func (m *Metrics) setSubscribers(n int) {
	if m != nil {
		m.subscribers.Set(float64(n))
	}
}

func (m *Metrics) sent(msg []byte) {
	if m == nil || len(msg) == 0 {
		return
	}
	m.frames.WithLabelValues(protocol.FrameType(msg[0]).String()).Inc()
	m.bytes.Add(float64(len(msg)))
}

func (m *Metrics) drop() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *Metrics) dispatch(status string) {
	if m != nil {
		m.dispatches.WithLabelValues(status).Inc()
	}
}
