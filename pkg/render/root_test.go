package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/livetree/internal/domtest"
	"github.com/vango-dev/livetree/pkg/dom"
	"github.com/vango-dev/livetree/pkg/vdom"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// counter is a small stateful component.
type counter struct {
	mu    sync.Mutex
	count int
	inc   *vdom.Handler
}

func newCounter() *counter {
	c := &counter{}
	c.inc = vdom.HandleFunc(func() {
		c.mu.Lock()
		c.count++
		c.mu.Unlock()
	})
	return c
}

func (c *counter) render(context.Context) vdom.Node {
	c.mu.Lock()
	n := c.count
	c.mu.Unlock()
	return vdom.Div(vdom.Class("counter"),
		vdom.Span(vdom.Textf("%d", n)),
		vdom.Button(vdom.OnClick(c.inc), "+"),
	)
}

func newRoot(t *testing.T, component Component, opts ...Option) (*Root, *dom.Document, *dom.Node) {
	t.Helper()
	doc := dom.New()
	container := doc.Container("main")
	opts = append([]Option{WithLogger(quiet)}, opts...)
	return NewRoot("test", doc, container, component, opts...), doc, container
}

func TestRootLifecycle(t *testing.T) {
	c := newCounter()
	var passes []Pass
	root, doc, container := newRoot(t, c.render, WithObserver(func(_ context.Context, p Pass) {
		passes = append(passes, p)
	}))

	if root.State() != StateEmpty || root.Current() != nil || root.Seq() != 0 {
		t.Fatalf("new root: state=%v current=%v seq=%d", root.State(), root.Current(), root.Seq())
	}

	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if root.State() != StateMaterialized {
		t.Errorf("State() = %v, want MATERIALIZED", root.State())
	}
	want := `<main><div class="counter"><span>0</span><button>+</button></div></main>`
	if got := dom.HTML(container); got != want {
		t.Errorf("HTML =\n%s\nwant\n%s", got, want)
	}
	doc.Flush()

	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := doc.Flush(); len(got) != 0 {
		t.Errorf("unchanged re-render produced %v", got)
	}

	btn := container.Children()[0].Children()[1]
	if _, err := doc.Dispatch(btn.ID(), "click", nil); err != nil {
		t.Fatal(err)
	}
	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	log := doc.Flush()
	if len(log) != 1 || log[0].Op != dom.OpSetText || log[0].Value != "1" {
		t.Errorf("increment produced %v, want one SetText", log)
	}

	if len(passes) != 3 {
		t.Fatalf("observer saw %d passes, want 3", len(passes))
	}
	for i, p := range passes {
		wantMode := ModePatch
		if i == 0 {
			wantMode = ModeMaterialize
		}
		if p.Seq != uint64(i+1) || p.Mode != wantMode || p.Err != nil || p.Root != "test" {
			t.Errorf("pass %d = %+v", i, p)
		}
	}
	if passes[2].Stats.TextUpdates != 1 {
		t.Errorf("pass 3 stats = %+v, want one text update", passes[2].Stats)
	}
	if root.Seq() != 3 {
		t.Errorf("Seq() = %d, want 3", root.Seq())
	}
}

func TestRootEmptiesContainerOnFirstPass(t *testing.T) {
	root, doc, container := newRoot(t, func(context.Context) vdom.Node { return vdom.P("fresh") })

	stale, _ := doc.CreateTextNode("stale")
	if err := container.AppendChild(stale); err != nil {
		t.Fatal(err)
	}
	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got, want := dom.HTML(container, dom.Inner()), "<p>fresh</p>"; got != want {
		t.Errorf("HTML = %s, want %s", got, want)
	}
}

func TestRootReentrantRender(t *testing.T) {
	var root *Root
	var inner error
	root, _, _ = newRoot(t, func(ctx context.Context) vdom.Node {
		inner = root.Render(ctx)
		return vdom.Div()
	})

	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(inner, ErrReentrantRender) {
		t.Errorf("nested Render err = %v, want ErrReentrantRender", inner)
	}
}

func TestRootNotifyDuringPassCoalesces(t *testing.T) {
	var root *Root
	calls := 0
	root, _, container := newRoot(t, func(context.Context) vdom.Node {
		calls++
		if calls == 1 {
			// Three requests during one pass fold into one follow-up.
			root.Notify()
			root.Notify()
			root.Notify()
		}
		return vdom.P(vdom.Textf("pass %d", calls))
	})

	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("component ran %d times, want 2", calls)
	}
	if got := container.Text(); got != "pass 2" {
		t.Errorf("Text() = %q, want %q", got, "pass 2")
	}
}

func TestRootRenderLoop(t *testing.T) {
	var root *Root
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	root, _, _ = newRoot(t, func(context.Context) vdom.Node {
		root.Notify()
		return vdom.Div()
	}, WithMaxPasses(4), WithMetrics(m))

	err := root.Render(context.Background())
	if !errors.Is(err, ErrRenderLoop) {
		t.Fatalf("err = %v, want ErrRenderLoop", err)
	}
	if root.Seq() != 4 {
		t.Errorf("Seq() = %d, want 4", root.Seq())
	}
	if got := counterValue(t, m.loops.WithLabelValues("test")); got != 1 {
		t.Errorf("loops_total = %v, want 1", got)
	}
}

func TestRootNotifyRendersWhenIdle(t *testing.T) {
	c := newCounter()
	root, doc, container := newRoot(t, c.render)

	root.Notify()
	if root.State() != StateMaterialized {
		t.Fatalf("State() = %v after Notify, want MATERIALIZED", root.State())
	}

	btn := container.Children()[0].Children()[1]
	if _, err := doc.Dispatch(btn.ID(), "click", nil); err != nil {
		t.Fatal(err)
	}
	root.Notify()
	if got := container.Children()[0].Children()[0].Text(); got != "1" {
		t.Errorf("count = %q, want %q", got, "1")
	}
}

func TestRootHandleNotifies(t *testing.T) {
	var (
		mu    sync.Mutex
		draft string
		count int
	)
	var input, inc *vdom.Handler
	root, doc, container := newRoot(t, func(context.Context) vdom.Node {
		mu.Lock()
		defer mu.Unlock()
		return vdom.Div(
			vdom.Input(vdom.Value(draft), vdom.OnInput(input)),
			vdom.Button(vdom.OnClick(inc), vdom.Textf("%d", count)),
		)
	})
	input = root.Handle(func(ev vdom.Event) {
		mu.Lock()
		draft = ev.Data["value"]
		mu.Unlock()
	})
	inc = root.HandleFunc(func() {
		mu.Lock()
		count++
		mu.Unlock()
	})
	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}

	div := container.Children()[0]
	if _, err := doc.Dispatch(div.Children()[0].ID(), "input", map[string]string{"value": "hi"}); err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Dispatch(div.Children()[1].ID(), "click", nil); err != nil {
		t.Fatal(err)
	}

	want := `<main><div><input value="hi"><button>1</button></div></main>`
	if got := dom.HTML(container); got != want {
		t.Errorf("HTML = %s, want %s", got, want)
	}
	if got := root.Seq(); got != 3 {
		t.Errorf("Seq() = %d, want 3", got)
	}
}

func TestRootConcurrentNotify(t *testing.T) {
	c := newCounter()
	var passes atomic.Int64
	root, _, container := newRoot(t, c.render, WithObserver(func(context.Context, Pass) {
		passes.Add(1)
	}))
	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}

	const workers = 8
	const perWorker = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				c.inc.Call(vdom.Event{Type: "click"})
				root.Notify()
			}
		}()
	}
	wg.Wait()

	// A final explicit pass settles whatever the last drain raced with.
	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := "200"
	if got := container.Children()[0].Children()[0].Text(); got != want {
		t.Errorf("count = %q, want %q", got, want)
	}
	if n := passes.Load(); n > workers*perWorker+2 {
		t.Errorf("%d passes for %d notifications", n, workers*perWorker)
	}
}

func TestRootFailedPassResets(t *testing.T) {
	doc := domtest.Wrap(dom.New())
	container := doc.Wrap(doc.Container("main"))
	h := vdom.HandleFunc(func() {})
	label := "a"
	var modes []Mode
	root := NewRoot("faulty", doc, container, func(context.Context) vdom.Node {
		return vdom.Div(vdom.Button(vdom.OnClick(h), vdom.Title(label)), vdom.P(label))
	}, WithLogger(quiet), WithObserver(func(_ context.Context, p Pass) {
		modes = append(modes, p.Mode)
	}))

	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	button := container.Children()[0].Children()[0]

	label = "b"
	doc.FailOn("SetAttribute", "button")
	err := root.Render(context.Background())
	if !errors.Is(err, domtest.ErrInjected) {
		t.Fatalf("err = %v, want ErrInjected", err)
	}
	if root.State() != StateEmpty || root.Current() != nil {
		t.Errorf("after failure state=%v current=%v, want EMPTY and nil", root.State(), root.Current())
	}
	if n := len(container.Children()); n != 0 {
		t.Errorf("container has %d children after failure, want 0", n)
	}
	if n := button.ListenerCount(); n != 0 {
		t.Errorf("detached button keeps %d listeners, want 0", n)
	}

	doc.FailWhen(nil)
	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []Mode{ModeMaterialize, ModePatch, ModeMaterialize}
	if diff := cmp.Diff(want, modes); diff != "" {
		t.Errorf("pass modes mismatch (-want +got):\n%s", diff)
	}
	html := `<div><button title="b"></button><p>b</p></div>`
	if got := dom.HTML(container.Node, dom.Inner()); got != html {
		t.Errorf("HTML = %s, want %s", got, html)
	}
	if n := container.ListenerCount(); n != 1 {
		t.Errorf("ListenerCount() = %d after rebuild, want 1", n)
	}
}

func TestRootRebuildsAfterFailure(t *testing.T) {
	doc := domtest.Wrap(dom.New())
	container := doc.Wrap(doc.Container("main"))
	text := "one"
	root := NewRoot("r", doc, container, func(context.Context) vdom.Node {
		return vdom.P(text)
	}, WithLogger(quiet))

	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	text = "two"
	doc.FailOn("SetTextContent", "")
	if err := root.Render(context.Background()); err == nil {
		t.Fatal("expected failure")
	}

	doc.FailWhen(nil)
	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := container.Text(); got != "two" {
		t.Errorf("Text() = %q, want %q", got, "two")
	}
	if root.Seq() != 3 {
		t.Errorf("Seq() = %d, want 3", root.Seq())
	}
}

func TestRootDisposalErrorKeepsPass(t *testing.T) {
	doc := domtest.Wrap(dom.New())
	container := doc.Wrap(doc.Container("main"))
	h := vdom.HandleFunc(func() {})
	swap := false
	root := NewRoot("r", doc, container, func(context.Context) vdom.Node {
		if swap {
			return vdom.Section("new")
		}
		return vdom.Div(vdom.Button(vdom.OnClick(h)))
	}, WithLogger(quiet))

	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	swap = true
	doc.FailOn("RemoveEventListener", "")
	err := root.Render(context.Background())
	if !errors.Is(err, vdom.ErrDisposal) {
		t.Fatalf("err = %v, want ErrDisposal", err)
	}
	if root.State() != StateMaterialized {
		t.Errorf("State() = %v, want MATERIALIZED", root.State())
	}
	if got := container.Text(); got != "new" {
		t.Errorf("Text() = %q, want %q", got, "new")
	}
}

func TestRootComponentFailures(t *testing.T) {
	tests := []struct {
		name      string
		component Component
		want      error
	}{
		{"nil snapshot", func(context.Context) vdom.Node { return nil }, ErrNilSnapshot},
		{"panic", func(context.Context) vdom.Node { panic("boom") }, ErrComponentPanic},
		{"empty tag", func(context.Context) vdom.Node { return &vdom.Element{} }, vdom.ErrEmptyTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, _, _ := newRoot(t, tt.component)
			if err := root.Render(context.Background()); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if root.State() != StateEmpty {
				t.Errorf("State() = %v, want EMPTY", root.State())
			}
		})
	}
}

func TestRootUnmount(t *testing.T) {
	c := newCounter()
	root, _, container := newRoot(t, c.render)
	if err := root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := root.Unmount(context.Background()); err != nil {
		t.Fatal(err)
	}
	if root.State() != StateEmpty {
		t.Errorf("State() = %v, want EMPTY", root.State())
	}
	if len(container.Children()) != 0 || container.ListenerCount() != 0 {
		t.Error("unmount left nodes or listeners behind")
	}
}

func TestRootMetricsAndTracer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("lt"))
	c := newCounter()
	root, _, _ := newRoot(t, c.render,
		WithMetrics(m),
		WithTracer(noop.NewTracerProvider().Tracer("test")),
	)

	for i := 0; i < 3; i++ {
		if err := root.Render(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	if got := counterValue(t, m.passes.WithLabelValues("test", "materialize", "ok")); got != 1 {
		t.Errorf("passes_total{materialize} = %v, want 1", got)
	}
	if got := counterValue(t, m.passes.WithLabelValues("test", "patch", "ok")); got != 2 {
		t.Errorf("passes_total{patch} = %v, want 2", got)
	}
	// 5 nodes, 1 attribute and 1 listener; the patches change nothing.
	if got := counterValue(t, m.mutations.WithLabelValues("test")); got != 7 {
		t.Errorf("mutations_total = %v, want 7", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "lt_render_pass_duration_seconds" {
			found = true
		}
	}
	if !found {
		t.Error("duration histogram not registered under the configured namespace")
	}
}

func TestStateAndModeStrings(t *testing.T) {
	if StateEmpty.String() != "EMPTY" || StateMaterialized.String() != "MATERIALIZED" || State(9).String() != "UNKNOWN" {
		t.Error("State.String mismatch")
	}
	if ModeMaterialize.String() != "materialize" || ModePatch.String() != "patch" {
		t.Error("Mode.String mismatch")
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}
