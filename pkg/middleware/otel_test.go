package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type recordedSpan struct {
	noop.Span
	name   string
	kind   trace.SpanKind
	attrs  map[attribute.Key]attribute.Value
	status codes.Code
	ended  bool
}

func (s *recordedSpan) IsRecording() bool { return true }
func (s *recordedSpan) SetName(name string) { s.name = name }
func (s *recordedSpan) End(...trace.SpanEndOption) { s.ended = true }
func (s *recordedSpan) SetStatus(code codes.Code, _ string) { s.status = code }
func (s *recordedSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

type recordingTracer struct {
	noop.Tracer
	mu    sync.Mutex
	spans []*recordedSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{name: name, kind: cfg.SpanKind(), attrs: make(map[attribute.Key]attribute.Value)}
	s.SetAttributes(cfg.Attributes()...)
	t.mu.Lock()
	t.spans = append(t.spans, s)
	t.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

func newTracedRouter(tracer trace.Tracer, opts ...OTelOption) *chi.Mux {
	r := chi.NewRouter()
	r.Use(OpenTelemetry(append([]OTelOption{WithTracer(tracer)}, opts...)...))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !SpanFromRequest(r).IsRecording() {
			http.Error(w, "no span", http.StatusTeapot)
		}
	})
	r.Get("/fail", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	return r
}

func TestOpenTelemetrySpan(t *testing.T) {
	tracer := &recordingTracer{}
	r := newTracedRouter(tracer, WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
		return []attribute.KeyValue{attribute.String("test.attr", "ok")}
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/7", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, span not visible to the handler", rec.Code)
	}
	if len(tracer.spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(tracer.spans))
	}

	s := tracer.spans[0]
	if s.name != "GET /items/{id}" {
		t.Errorf("name = %q", s.name)
	}
	if s.kind != trace.SpanKindServer {
		t.Errorf("kind = %v", s.kind)
	}
	if !s.ended || s.status != codes.Ok {
		t.Errorf("ended = %v, status = %v", s.ended, s.status)
	}

	got := map[string]string{}
	for k, v := range s.attrs {
		got[string(k)] = v.Emit()
	}
	want := map[string]string{
		"http.request.method":       "GET",
		"url.path":                  "/items/7",
		"http.route":                "/items/{id}",
		"http.response.status_code": "200",
		"test.attr":                 "ok",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("attributes (-want +got):\n%s", diff)
	}
}

func TestOpenTelemetryServerErrors(t *testing.T) {
	tracer := &recordingTracer{}
	r := newTracedRouter(tracer)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	if len(tracer.spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(tracer.spans))
	}
	if got := tracer.spans[0].status; got != codes.Error {
		t.Errorf("status = %v, want Error", got)
	}
}

func TestOpenTelemetryFilter(t *testing.T) {
	tracer := &recordingTracer{}
	r := newTracedRouter(tracer, WithFilter(func(r *http.Request) bool {
		return r.URL.Path != "/fail"
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	if len(tracer.spans) != 0 {
		t.Errorf("filtered request produced %d spans", len(tracer.spans))
	}
}

func TestOpenTelemetryUnmatchedKeepsPathName(t *testing.T) {
	tracer := &recordingTracer{}
	r := newTracedRouter(tracer)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if got := tracer.spans[0].name; got != "GET /nowhere" {
		t.Errorf("name = %q", got)
	}
}
