package render

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTracerName is the tracer used when WithTracer is not given.
const DefaultTracerName = "livetree"

type config struct {
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	observers []Observer
	maxPasses int
}

func defaultConfig() config {
	return config{
		logger:    slog.Default(),
		tracer:    otel.Tracer(DefaultTracerName),
		maxPasses: DefaultMaxPasses,
	}
}

// Option configures a Root.
type Option func(*config)

// WithLogger sets the logger. The root adds component and root attributes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records every pass in m. Several roots may share one Metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithTracer sets the tracer that opens one span per pass.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithObserver adds an observer called after every pass.
func WithObserver(obs Observer) Option {
	return func(c *config) {
		if obs != nil {
			c.observers = append(c.observers, obs)
		}
	}
}

// WithMaxPasses bounds the passes a single Render or Notify call may run
// before giving up with ErrRenderLoop.
func WithMaxPasses(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxPasses = n
		}
	}
}
