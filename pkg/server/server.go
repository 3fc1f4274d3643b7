package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/livetree/pkg/dom"
	"github.com/vango-dev/livetree/pkg/protocol"
	"github.com/vango-dev/livetree/pkg/render"
	"github.com/vango-dev/livetree/pkg/vdom"
)

// ErrClosed is returned when subscribing to a closed server.
var ErrClosed = errors.New("server: closed")

// Server streams one container of a document to browsers.
type Server struct {
	doc       *dom.Document
	container *dom.Node

	config   *Config
	logger   *slog.Logger
	metrics  *Metrics
	gatherer prometheus.Gatherer

	upgrader websocket.Upgrader
	hub      *hub
	router   chi.Router

	// mu orders log flushes, broadcasts and new subscriptions, so every
	// subscriber sees each mutation exactly once and in order.
	mu     sync.Mutex
	seq    uint64
	closed bool

	nextID atomic.Uint64
}

// New creates a Server for container, which must belong to doc. A nil
// config uses DefaultConfig.
func New(doc *dom.Document, container *dom.Node, config *Config, opts ...Option) *Server {
	config = config.withDefaults()
	o := options{
		logger:   slog.Default(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger.With("component", "server")
	s := &Server{
		doc:       doc,
		container: container,
		config:    config,
		logger:    logger,
		metrics:   o.metrics,
		gatherer:  o.gatherer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		hub: newHub(o.metrics, logger),
	}
	s.router = s.routes(o.middleware)
	return s
}

func (s *Server) routes(middleware []func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware...)

	r.Get("/", s.handlePage)
	r.Get("/fragment", s.handleFragment)
	r.Get("/client.js", s.handleClient)
	r.Get("/ws", s.handleStream)
	r.Post("/dispatch/{id}/{event}", s.handleDispatch)
	if s.config.MetricsPath != "" {
		r.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Observe is a render.Observer. It publishes the mutations of each pass
// and reports failed passes to subscribers.
func (s *Server) Observe(_ context.Context, p render.Pass) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.publishLocked()
	if p.Err != nil && !errors.Is(p.Err, vdom.ErrDisposal) {
		s.hub.broadcast(protocol.ErrorFrame(protocol.ErrRenderFailed, p.Err.Error(), false))
	}
}

// Publish flushes the document log to subscribers and returns the number
// of mutations sent. Call it after mutating the document outside a render
// pass.
func (s *Server) Publish() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publishLocked()
}

func (s *Server) publishLocked() int {
	muts := s.doc.Flush()
	if len(muts) > 0 {
		s.sendLocked(muts)
	}
	return len(muts)
}

// sendLocked broadcasts one batch under the next sequence number. A batch
// too large for one frame makes viewers reload instead.
func (s *Server) sendLocked(muts []dom.Mutation) {
	s.seq++
	msg, err := protocol.MutationsMessage(&protocol.MutationsFrame{Seq: s.seq, Mutations: muts})
	if err != nil {
		s.logger.Warn("mutation batch does not fit a frame, reloading viewers",
			"seq", s.seq, "mutations", len(muts), "error", err)
		msg = protocol.ControlMessage(&protocol.Control{Type: protocol.ControlReload})
	}
	s.hub.broadcast(msg)
}

// subscribe registers a subscriber whose queue starts with a replay of the
// container. Mutations logged before the replay are sent to the existing
// subscribers first.
func (s *Server) subscribe(remote string) (*subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	flushed, replay := s.doc.Sync(s.container)
	if len(flushed) > 0 {
		s.sendLocked(flushed)
	}
	msg, err := protocol.MutationsMessage(&protocol.MutationsFrame{Seq: s.seq, Replay: true, Mutations: replay})
	if err != nil {
		return nil, fmt.Errorf("server: replay: %w", err)
	}

	sub := newSubscriber(s.nextID.Add(1), s.config.SendBuffer, remote)
	sub.send <- msg
	s.hub.add(sub)
	return sub, nil
}

// Seq returns the sequence number of the last broadcast batch.
func (s *Server) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Subscribers returns the number of connected subscribers.
func (s *Server) Subscribers() int {
	return s.hub.len()
}

// Close disconnects every subscriber with a close frame and rejects new
// ones. It does not stop an http.Server serving s.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.hub.closeAll(closeShutdown)
}

// ListenAndServe serves s on addr until ctx is done, then closes the
// stream and shuts the listener down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.config.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("listening", "address", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
