package snapshot

import (
	"maps"
	"slices"
	"sync"

	"github.com/vango-dev/livetree/pkg/vdom"
)

// Registry maps handler names to stable handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]*vdom.Handler
	names    map[*vdom.Handler]string
	funcs    map[string]func(vdom.Event)
	fallback func(name string, ev vdom.Event)
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]*vdom.Handler),
		names:    make(map[*vdom.Handler]string),
		funcs:    make(map[string]func(vdom.Event)),
	}
}

// Register sets the function run by the handler called name. It may be
// called before or after the handler is first used; the handler identity
// does not change.
func (r *Registry) Register(name string, fn func(vdom.Event)) *vdom.Handler {
	r.mu.Lock()
	r.funcs[name] = fn
	r.mu.Unlock()
	return r.Handler(name)
}

// SetFallback sets the function run for names without a registered
// function.
func (r *Registry) SetFallback(fn func(name string, ev vdom.Event)) {
	r.mu.Lock()
	r.fallback = fn
	r.mu.Unlock()
}

// Handler returns the handler called name, creating it on first use.
func (r *Registry) Handler(name string) *vdom.Handler {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if ok {
		return h
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handlers[name]; ok {
		return h
	}
	h = vdom.Handle(func(ev vdom.Event) { r.call(name, ev) })
	r.handlers[name] = h
	r.names[h] = name
	return h
}

func (r *Registry) call(name string, ev vdom.Event) {
	r.mu.RLock()
	fn, fallback := r.funcs[name], r.fallback
	r.mu.RUnlock()

	switch {
	case fn != nil:
		fn(ev)
	case fallback != nil:
		fallback(name, ev)
	}
}

// Name returns the name h was created for.
func (r *Registry) Name(h *vdom.Handler) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[h]
	return name, ok
}

// Names returns every handler name in use, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.handlers))
}
