package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds server configuration.
type Config struct {
	// Title is the page title of the shell.
	// Default: "livetree".
	Title string

	// ReadTimeout is the maximum time to wait for a message or a pong from
	// a subscriber.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time one frame write may take.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// PingInterval is the time between WebSocket pings. It must be shorter
	// than ReadTimeout.
	// Default: 30 seconds.
	PingInterval time.Duration

	// SendBuffer is the number of frames queued per subscriber before the
	// subscriber is dropped.
	// Default: 64.
	SendBuffer int

	// MaxMessageSize is the maximum size of an incoming WebSocket message.
	// Default: 4KB.
	MaxMessageSize int64

	// MaxBodySize is the maximum size of a dispatch request body.
	// Default: 64KB.
	MaxBodySize int64

	// MetricsPath is where the Prometheus handler is mounted. Empty
	// disables the route.
	// Default: "/metrics" when New is given a nil Config.
	MetricsPath string

	// CheckOrigin validates the Origin header of stream requests.
	// Default: same host only.
	CheckOrigin func(r *http.Request) bool

	// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
	// Default: 5 seconds.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Title:           "livetree",
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		PingInterval:    30 * time.Second,
		SendBuffer:      64,
		MaxMessageSize:  4 * 1024,
		MaxBodySize:     64 * 1024,
		MetricsPath:     "/metrics",
		ShutdownTimeout: 5 * time.Second,
	}
}

// withDefaults returns a copy of c with unset fields filled in.
func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}
	out := *c
	if out.Title == "" {
		out.Title = defaults.Title
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = defaults.ReadTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = defaults.WriteTimeout
	}
	if out.PingInterval <= 0 {
		out.PingInterval = defaults.PingInterval
	}
	if out.PingInterval >= out.ReadTimeout {
		out.PingInterval = out.ReadTimeout * 9 / 10
	}
	if out.SendBuffer <= 0 {
		out.SendBuffer = defaults.SendBuffer
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = defaults.MaxMessageSize
	}
	if out.MaxBodySize <= 0 {
		out.MaxBodySize = defaults.MaxBodySize
	}
	if out.ShutdownTimeout <= 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return &out
}

type options struct {
	logger     *slog.Logger
	metrics    *Metrics
	gatherer   prometheus.Gatherer
	middleware []func(http.Handler) http.Handler
}

// Option configures a Server.
type Option func(*options)

// WithLogger sets the logger. The server adds a component attribute.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records stream and dispatch activity in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithGatherer sets the gatherer served on Config.MetricsPath.
// Default: prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) {
		if g != nil {
			o.gatherer = g
		}
	}
}

// WithMiddleware adds router middleware, applied in order.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, mw...)
	}
}
