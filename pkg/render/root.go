package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/livetree/pkg/vdom"
)

// Driver errors.
var (
	ErrReentrantRender = errors.New("render: Render called from inside a pass")
	ErrRenderLoop      = errors.New("render: too many follow-up passes")
	ErrNilSnapshot     = errors.New("render: component returned no snapshot")
	ErrComponentPanic  = errors.New("render: component panicked")
)

// DefaultMaxPasses bounds the passes one Render or Notify call runs.
const DefaultMaxPasses = 16

// State is the driver state of a Root.
type State uint8

const (
	StateEmpty        State = iota // Nothing mounted; the next pass materializes
	StateMaterialized              // A snapshot is current; the next pass patches
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateMaterialized:
		return "MATERIALIZED"
	default:
		return "UNKNOWN"
	}
}

// Mode is the kind of work a pass did.
type Mode uint8

const (
	ModeMaterialize Mode = iota // Full build into an emptied container
	ModePatch                   // Reconciliation against the current snapshot
)

// String returns the string representation of the Mode.
func (m Mode) String() string {
	if m == ModePatch {
		return "patch"
	}
	return "materialize"
}

// Component produces the snapshot for one pass. It is called with the
// pass context and must build a fresh tree every time.
type Component func(ctx context.Context) vdom.Node

// Pass describes one completed or failed render pass.
type Pass struct {
	Root     string
	Seq      uint64
	Mode     Mode
	Duration time.Duration
	Stats    vdom.Stats
	Err      error // Nil on success; errors.Is(Err, vdom.ErrDisposal) means the pass took effect
}

// Observer is called after every pass while the root is still locked, so
// observers see passes in order. An observer must not call Render.
type Observer func(ctx context.Context, p Pass)

type passKey struct{}

// Root binds a component to a container node. Each Root owns its own
// reconciler and current snapshot; passes for one Root never overlap.
type Root struct {
	name      string
	container vdom.LiveNode
	component Component
	rec       *vdom.Reconciler

	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	observers []Observer
	maxPasses int

	// mu is held for the duration of a drain.
	mu sync.Mutex
	// pending is set by Notify and cleared when a pass starts.
	pending atomic.Bool

	// state, current and seq are read outside of passes.
	stateMu sync.RWMutex
	state   State
	current vdom.Node
	seq     uint64
}

// NewRoot creates a Root rendering component into container. Nodes are
// created through doc. The root starts EMPTY; nothing happens until the
// first Render or Notify.
func NewRoot(name string, doc vdom.Document, container vdom.LiveNode, component Component, opts ...Option) *Root {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Root{
		name:      name,
		container: container,
		component: component,
		rec:       vdom.NewReconciler(doc),
		logger:    cfg.logger.With("component", "render", "root", name),
		metrics:   cfg.metrics,
		tracer:    cfg.tracer,
		observers: cfg.observers,
		maxPasses: cfg.maxPasses,
	}
}

// Name returns the root name.
func (r *Root) Name() string { return r.name }

// Container returns the live node the root renders into.
func (r *Root) Container() vdom.LiveNode { return r.container }

// State returns the current driver state.
func (r *Root) State() State {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.state
}

// Current returns the current snapshot, or nil when EMPTY. The snapshot
// belongs to the root and must not be modified.
func (r *Root) Current() vdom.Node {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.current
}

// Seq returns the sequence number of the last pass.
func (r *Root) Seq() uint64 {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.seq
}

// Render runs a pass and then any follow-up passes requested with Notify
// while it ran. It blocks while another goroutine is rendering the same
// root. Calling Render with the context of a running pass returns
// ErrReentrantRender; components request another pass with Notify.
//
// A failed pass leaves the root EMPTY, so the next pass rebuilds the
// container from scratch.
func (r *Root) Render(ctx context.Context) error {
	if owner, _ := ctx.Value(passKey{}).(*Root); owner == r {
		return ErrReentrantRender
	}
	r.mu.Lock()
	return r.drainAndUnlock(ctx)
}

// Notify requests a pass. If no pass is running the pass runs on the
// calling goroutine before Notify returns. Otherwise the request is
// coalesced into a single follow-up pass of the running drain. Errors are
// logged and reported to observers.
func (r *Root) Notify() {
	r.pending.Store(true)
	if !r.mu.TryLock() {
		return
	}
	if err := r.drainAndUnlock(context.Background()); err != nil {
		r.logger.Error("render failed", "error", err)
	}
}

// Handle wraps fn in a handler that requests a pass after fn returns.
func (r *Root) Handle(fn func(vdom.Event)) *vdom.Handler {
	return vdom.Handle(func(ev vdom.Event) {
		fn(ev)
		r.Notify()
	})
}

// HandleFunc is Handle for callbacks that ignore the event payload.
func (r *Root) HandleFunc(fn func()) *vdom.Handler {
	return r.Handle(func(vdom.Event) { fn() })
}

// Unmount disposes the current snapshot, empties the container and
// returns the root to EMPTY.
func (r *Root) Unmount(ctx context.Context) error {
	if owner, _ := ctx.Value(passKey{}).(*Root); owner == r {
		return ErrReentrantRender
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reset()
}

// drainAndUnlock runs passes while requests are pending, releases r.mu and
// then picks up a request that raced with the release.
func (r *Root) drainAndUnlock(ctx context.Context) error {
	r.pending.Store(true)
	err := r.drain(ctx)
	r.mu.Unlock()

	for r.pending.Load() && r.mu.TryLock() {
		if e := r.drain(ctx); e != nil {
			err = errors.Join(err, e)
		}
		r.mu.Unlock()
	}
	return err
}

// drain runs passes until no request is pending. Callers hold r.mu.
func (r *Root) drain(ctx context.Context) error {
	var disposal error
	for n := 0; r.pending.Load(); n++ {
		if n == r.maxPasses {
			r.pending.Store(false)
			r.metrics.loop(r.name)
			return fmt.Errorf("%w: %d passes", ErrRenderLoop, n)
		}
		r.pending.Store(false)

		err := r.pass(ctx)
		switch {
		case err == nil:
		case errors.Is(err, vdom.ErrDisposal):
			disposal = errors.Join(disposal, err)
		default:
			return err
		}
	}
	return disposal
}

// pass builds the next snapshot and reconciles it. Callers hold r.mu.
func (r *Root) pass(ctx context.Context) error {
	r.stateMu.RLock()
	state, current, seq := r.state, r.current, r.seq+1
	r.stateMu.RUnlock()

	mode := ModePatch
	if state == StateEmpty {
		mode = ModeMaterialize
	}

	ctx = context.WithValue(ctx, passKey{}, r)
	ctx, span := r.tracer.Start(ctx, "livetree.render",
		trace.WithAttributes(
			attribute.String("livetree.root", r.name),
			attribute.Int64("livetree.seq", int64(seq)),
			attribute.String("livetree.mode", mode.String()),
		),
	)
	defer span.End()

	start := time.Now()
	r.rec.ResetStats()

	next, err := r.build(ctx)
	switch {
	case err != nil:
	case mode == ModeMaterialize:
		err = r.materialize(next)
	default:
		err = r.rec.Patch(current, next, r.container)
	}

	p := Pass{
		Root:     r.name,
		Seq:      seq,
		Mode:     mode,
		Duration: time.Since(start),
		Stats:    r.rec.Stats(),
		Err:      err,
	}

	if err == nil || errors.Is(err, vdom.ErrDisposal) {
		r.commit(next, seq)
	} else {
		r.fail(current, next, seq)
	}

	span.SetAttributes(attribute.Int("livetree.mutations", p.Stats.Mutations()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	r.report(ctx, p)
	return err
}

// build calls the component. A panic fails the pass instead of the process.
func (r *Root) build(ctx context.Context) (n vdom.Node, err error) {
	defer func() {
		if p := recover(); p != nil {
			n, err = nil, fmt.Errorf("%w: %v", ErrComponentPanic, p)
		}
	}()
	n = r.component(ctx)
	if n == nil {
		return nil, ErrNilSnapshot
	}
	return n, nil
}

// materialize empties the container and mounts a full build of next.
func (r *Root) materialize(next vdom.Node) error {
	if c, ok := r.container.(interface{ Clear() error }); ok {
		if err := c.Clear(); err != nil {
			return fmt.Errorf("render: clear container: %w", err)
		}
	}
	live, err := r.rec.Materialize(next)
	if err != nil {
		return err
	}
	if err := r.container.AppendChild(live); err != nil {
		return fmt.Errorf("render: mount: %w", err)
	}
	return nil
}

func (r *Root) commit(next vdom.Node, seq uint64) {
	r.stateMu.Lock()
	r.state, r.current, r.seq = StateMaterialized, next, seq
	r.stateMu.Unlock()
}

// fail drops to EMPTY after a failed pass. The target may be partially
// patched, so every registration reachable from either snapshot is
// released and the container is emptied.
func (r *Root) fail(current, next vdom.Node, seq uint64) {
	for _, n := range []vdom.Node{current, next} {
		if n == nil {
			continue
		}
		if err := r.rec.Dispose(n); err != nil {
			r.logger.Warn("dispose after failed pass", "error", err)
		}
	}
	if c, ok := r.container.(interface{ Clear() error }); ok {
		if err := c.Clear(); err != nil {
			r.logger.Warn("clear after failed pass", "error", err)
		}
	}

	r.stateMu.Lock()
	r.state, r.current, r.seq = StateEmpty, nil, seq
	r.stateMu.Unlock()
}

// reset unmounts the current snapshot. Callers hold r.mu.
func (r *Root) reset() error {
	r.stateMu.RLock()
	current := r.current
	r.stateMu.RUnlock()

	var errs []error
	if current != nil {
		if err := r.rec.Dispose(current); err != nil {
			errs = append(errs, err)
		}
		if live := current.Live(); live != nil {
			if err := r.container.RemoveChild(live); err != nil {
				errs = append(errs, err)
			}
		}
	}

	r.stateMu.Lock()
	r.state, r.current = StateEmpty, nil
	r.stateMu.Unlock()
	return errors.Join(errs...)
}

func (r *Root) report(ctx context.Context, p Pass) {
	r.metrics.observe(p)

	switch {
	case p.Err == nil:
		r.logger.Debug("pass complete",
			"seq", p.Seq,
			"mode", p.Mode.String(),
			"mutations", p.Stats.Mutations(),
			"duration", p.Duration,
		)
	case errors.Is(p.Err, vdom.ErrDisposal):
		r.logger.Warn("pass complete with disposal errors", "seq", p.Seq, "error", p.Err)
	default:
		r.logger.Error("pass failed, root reset", "seq", p.Seq, "mode", p.Mode.String(), "error", p.Err)
	}

	for _, obs := range r.observers {
		obs(ctx, p)
	}
}
