package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/livetree/internal/errors"
)

const (
	// FileName is the name of the configuration file.
	FileName = "livetree.json"

	// DefaultHost is the default listen host.
	DefaultHost = "localhost"

	// DefaultPort is the default listen port.
	DefaultPort = 8080

	// DefaultMaxPasses bounds the follow-up passes of one render call.
	DefaultMaxPasses = 16

	// DefaultNamespace is the Prometheus namespace.
	DefaultNamespace = "livetree"

	// DefaultTracerName is the OpenTelemetry tracer name.
	DefaultTracerName = "livetree"
)

// Config is the content of livetree.json.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Log     LogConfig     `json:"log"`
	Metrics MetricsConfig `json:"metrics"`
	Tracing TracingConfig `json:"tracing"`
	Render  RenderConfig  `json:"render"`
	Export  ExportConfig  `json:"export"`

	// path is where the config was loaded from.
	path string
}

// ServerConfig configures the live server.
type ServerConfig struct {
	// Host is the interface to bind to.
	Host string `json:"host,omitempty"`

	// Port is the TCP port.
	Port int `json:"port,omitempty"`

	// ReadTimeout bounds reading a request (e.g. "10s").
	ReadTimeout string `json:"readTimeout,omitempty"`

	// WriteTimeout bounds writing a response and each websocket frame.
	WriteTimeout string `json:"writeTimeout,omitempty"`

	// PingInterval is the websocket keepalive period.
	PingInterval string `json:"pingInterval,omitempty"`

	// SendBuffer is the number of frames queued per subscriber before it
	// is dropped as too slow.
	SendBuffer int `json:"sendBuffer,omitempty"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`

	// File additionally receives every record as JSON when set.
	File string `json:"file,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Path      string `json:"path,omitempty"`
}

// TracingConfig configures render spans.
type TracingConfig struct {
	TracerName string `json:"tracerName,omitempty"`
}

// RenderConfig configures render roots.
type RenderConfig struct {
	// MaxPasses bounds follow-up passes per Render or Notify call.
	MaxPasses int `json:"maxPasses,omitempty"`
}

// ExportConfig configures the S3 exporter.
type ExportConfig struct {
	Bucket    string `json:"bucket,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	Region    string `json:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	PathStyle bool   `json:"pathStyle,omitempty"`
}

// New returns a Config with every default applied.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads livetree.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile reads the configuration at path, applies defaults and validates
// the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E121").
				WithDetail("No " + FileName + " found at " + path).
				WithSuggestion("Create one or run without --config to use the defaults")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	c := &Config{}
	if err := json.Unmarshal(data, c); err != nil {
		e := errors.New("E120").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid JSON")
		if se, ok := err.(*json.SyntaxError); ok {
			line, col := position(data, se.Offset)
			e.WithLocation(path, line, col)
		}
		return nil, e
	}

	c.path = path
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadOrDefault loads path when it is non-empty and returns the defaults
// otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return New(), nil
	}
	return LoadFile(path)
}

// position converts a byte offset to a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}
	c.path = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "10s"
	}
	if c.Server.PingInterval == "" {
		c.Server.PingInterval = "30s"
	}
	if c.Server.SendBuffer == 0 {
		c.Server.SendBuffer = 64
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}

	if c.Render.MaxPasses == 0 {
		c.Render.MaxPasses = DefaultMaxPasses
	}
}

// Validate checks the configuration for values the CLI cannot use.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E122").
			WithDetail("Port must be between 0 and 65535, got " + strconv.Itoa(c.Server.Port))
	}
	if c.Server.SendBuffer < 0 {
		return errors.New("E122").WithDetail("server.sendBuffer must not be negative")
	}
	for name, v := range map[string]string{
		"server.readTimeout":  c.Server.ReadTimeout,
		"server.writeTimeout": c.Server.WriteTimeout,
		"server.pingInterval": c.Server.PingInterval,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return errors.New("E125").
				WithDetail(name + " must be a positive duration, got " + strconv.Quote(v)).
				WithSuggestion(`Use Go duration syntax such as "10s" or "1m30s"`)
		}
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return errors.New("E123").WithDetail("Unknown log format " + strconv.Quote(c.Log.Format))
	}
	if c.Render.MaxPasses < 0 {
		return errors.New("E124")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("E120").WithDetail("metrics.path must start with /")
	}
	return nil
}

// Address returns host:port for the listener.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New("E123").
			WithDetail("Unknown log level " + strconv.Quote(c.Log.Level)).
			Wrap(err)
	}
	return level, nil
}

// ReadTimeout returns the parsed server read timeout.
func (c *Config) ReadTimeout() time.Duration { return mustDuration(c.Server.ReadTimeout) }

// WriteTimeout returns the parsed server write timeout.
func (c *Config) WriteTimeout() time.Duration { return mustDuration(c.Server.WriteTimeout) }

// PingInterval returns the parsed websocket keepalive period.
func (c *Config) PingInterval() time.Duration { return mustDuration(c.Server.PingInterval) }

// mustDuration parses a duration that Validate already accepted.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
