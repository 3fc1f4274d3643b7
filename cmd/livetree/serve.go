package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/vango-dev/livetree/internal/errors"
	"github.com/vango-dev/livetree/pkg/dom"
	"github.com/vango-dev/livetree/pkg/middleware"
	"github.com/vango-dev/livetree/pkg/render"
	"github.com/vango-dev/livetree/pkg/server"
	"github.com/vango-dev/livetree/pkg/snapshot"
	"github.com/vango-dev/livetree/pkg/vdom"
)

func (c *cli) serveCmd() *cobra.Command {
	var (
		host  string
		port  int
		demo  string
		file  string
		watch time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live document",
		Long: `Serve a live document to browsers.

The page is rendered on the server; every change is streamed to open
browsers over a WebSocket, and browser events are dispatched back to the
document.

Without --file one of the built-in demos is served. With --file the
snapshot file is served and re-read whenever it changes; handler names in
the file log the events they receive.

Examples:
  livetree serve
  livetree serve --demo todo --port 3000
  livetree serve --file page.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				c.cfg.Server.Host = host
			}
			if port != 0 {
				c.cfg.Server.Port = port
				if err := c.cfg.Validate(); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.runServe(ctx, demo, file, watch)
		},
	}

	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&demo, "demo", "d", "counter", "Demo to serve: counter or todo")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Serve this snapshot file instead of a demo")
	cmd.Flags().DurationVar(&watch, "watch", 500*time.Millisecond, "Poll interval for --file changes")

	return cmd
}

// liveApp is everything serve wires together.
type liveApp struct {
	root *render.Root
	srv  *server.Server
	stop func()
}

func (c *cli) buildLive(demo, file string, watch time.Duration) (*liveApp, error) {
	cfg := c.cfg
	doc := dom.New()
	container := doc.Container("main")

	var renderOpts []render.Option
	srvConfig := &server.Config{
		Title:        "livetree",
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		PingInterval: cfg.PingInterval(),
		SendBuffer:   cfg.Server.SendBuffer,
	}
	srvOpts := []server.Option{server.WithLogger(c.logger)}
	mw := []func(http.Handler) http.Handler{
		middleware.OpenTelemetry(
			middleware.WithTracerName(cfg.Tracing.TracerName),
			middleware.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != cfg.Metrics.Path
			}),
		),
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		ns := cfg.Metrics.Namespace
		renderOpts = append(renderOpts, render.WithMetrics(
			render.NewMetrics(render.WithRegistry(reg), render.WithNamespace(ns))))
		srvOpts = append(srvOpts,
			server.WithMetrics(server.NewMetrics(server.WithRegistry(reg), server.WithNamespace(ns))),
			server.WithGatherer(reg))
		httpMetrics := middleware.NewMetrics(middleware.WithRegistry(reg), middleware.WithNamespace(ns))
		mw = append(mw, httpMetrics.Handler)
		srvConfig.MetricsPath = cfg.Metrics.Path
	}
	srvOpts = append(srvOpts, server.WithMiddleware(mw...))

	srv := server.New(doc, container, srvConfig, srvOpts...)

	name := demo
	if file != "" {
		name = file
	}
	renderOpts = append(renderOpts,
		render.WithLogger(c.logger),
		render.WithTracer(otel.Tracer(cfg.Tracing.TracerName)),
		render.WithMaxPasses(cfg.Render.MaxPasses),
		render.WithObserver(srv.Observe),
	)
	// The demos bind their handlers to the root, so the root is created
	// before the view it renders.
	var view render.Component
	root := render.NewRoot(name, doc, container, func(ctx context.Context) vdom.Node {
		return view(ctx)
	}, renderOpts...)

	stop := func() {}
	switch {
	case file != "":
		view, stop = c.fileComponent(file, watch, root.Notify)
	case demo == "counter":
		view = newCounterDemo(root).render
	case demo == "todo":
		view = newTodoDemo(root).render
	default:
		return nil, errors.New("E161").
			WithDetail("Unknown demo " + strconv.Quote(demo)).
			WithSuggestion("Use --demo counter or --demo todo")
	}
	return &liveApp{root: root, srv: srv, stop: stop}, nil
}

func (c *cli) runServe(ctx context.Context, demo, file string, watch time.Duration) error {
	app, err := c.buildLive(demo, file, watch)
	if err != nil {
		return err
	}
	defer app.stop()

	if err := app.root.Render(ctx); err != nil {
		c.out.warn("First render failed: %v", err)
	}

	c.out.success("Serving %s at http://%s", app.root.Name(), c.cfg.Address())
	if c.cfg.Metrics.Enabled {
		c.out.info("Metrics at http://%s%s", c.cfg.Address(), c.cfg.Metrics.Path)
	}
	if err := app.srv.ListenAndServe(ctx, c.cfg.Address()); err != nil {
		return errors.New("E160").WithDetail(err.Error()).Wrap(err)
	}
	return nil
}

// fileComponent serves a snapshot file. The file is re-read on every pass;
// a poller requests a pass when its modification time changes. A file that
// fails to parse keeps the last good snapshot on screen.
func (c *cli) fileComponent(path string, watch time.Duration, notify func()) (render.Component, func()) {
	reg := snapshot.NewRegistry()
	reg.SetFallback(func(name string, ev vdom.Event) {
		c.logger.Info("event", "handler", name, "type", ev.Type, "data", ev.Data)
	})

	// good holds the last file contents that parsed; each pass decodes a
	// fresh tree from it.
	var good []byte
	component := func(context.Context) vdom.Node {
		data, err := os.ReadFile(path)
		if err == nil {
			var n vdom.Node
			if n, err = snapshot.Parse(data, reg); err == nil {
				if !bytes.Equal(data, good) {
					elements, interactive := snapshotStats(n)
					c.logger.Info("snapshot loaded", "file", path, "elements", elements, "interactive", interactive)
				}
				good = data
				return n
			}
		}
		c.logger.Error("snapshot reload failed", "file", path, "error", err)
		if good == nil {
			return vdom.Div()
		}
		n, _ := snapshot.Parse(good, reg)
		return n
	}

	if watch <= 0 {
		watch = 500 * time.Millisecond
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(watch)
		defer ticker.Stop()
		var mod time.Time
		if fi, err := os.Stat(path); err == nil {
			mod = fi.ModTime()
		}
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fi, err := os.Stat(path)
				if err != nil || fi.ModTime().Equal(mod) {
					continue
				}
				mod = fi.ModTime()
				c.logger.Info("snapshot changed", "file", path)
				notify()
			}
		}
	}()
	return component, func() { close(done) }
}
