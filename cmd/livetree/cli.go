package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/livetree/internal/config"
	"github.com/vango-dev/livetree/internal/errors"
	"github.com/vango-dev/livetree/pkg/export"
)

// cli holds what every command shares: configuration, logging and output.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	out    printer

	configPath string
	logLevel   string
	logFormat  string
	logFile    string
	noColor    bool

	cfg     *config.Config
	logger  *slog.Logger
	closers []io.Closer

	// newS3 builds the upload client; tests replace it.
	newS3 func(export.ClientConfig) export.API
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{
		stdout: stdout,
		stderr: stderr,
		newS3: func(cfg export.ClientConfig) export.API {
			return export.NewClient(cfg)
		},
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "livetree",
		Short: "Render and stream declarative UI snapshots",
		Long: `livetree reconciles declarative UI snapshots against a live document.

Snapshots are YAML or JSON descriptions of an element tree. livetree can
render them to HTML, show the mutations that turn one snapshot into
another, and serve a live document whose changes stream to browsers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Config file (default ./"+config.FileName+" if present)")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&c.logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&c.logFile, "log-file", "", "Also write JSON logs to this file")
	flags.BoolVar(&c.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		c.renderCmd(),
		c.diffCmd(),
		c.serveCmd(),
		c.versionCmd(),
	)
	return root
}

// setup loads the configuration, applies flag overrides and installs the
// logger.
func (c *cli) setup() error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}
	if c.logFile != "" {
		cfg.Log.File = c.logFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	color := !c.noColor && isTerminal(c.stderr)
	errors.SetColor(color)
	c.out = printer{w: c.stderr, color: color}

	logger, closer, err := newLogger(c.stderr, cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		c.closers = append(c.closers, closer)
	}
	c.logger = logger
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads --config, or ./livetree.json when it exists, or falls
// back to the defaults.
func (c *cli) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.LoadFile(c.configPath)
	}
	if _, err := os.Stat(filepath.Join(".", config.FileName)); err == nil {
		return config.Load(".")
	}
	return config.New(), nil
}

func (c *cli) close() {
	for _, cl := range c.closers {
		cl.Close()
	}
	c.closers = nil
}
