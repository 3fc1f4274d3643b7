package vdom

import (
	"maps"
	"slices"
)

// Event is delivered to a handler when the render target fires an event.
type Event struct {
	Type   string            // Event name, e.g. "click"
	Target LiveNode          // Node the event was dispatched on
	Data   map[string]string // Event payload (input value, key, ...)
}

// Handler is an event callback with identity. Two handlers are the same
// registration only if they are the same pointer, so a *Handler kept
// across renders never causes re-registration.
type Handler struct {
	fn func(Event)
}

// Handle wraps fn in a new Handler. Call it once and reuse the result;
// calling it again for the same fn yields a different identity.
func Handle(fn func(Event)) *Handler {
	return &Handler{fn: fn}
}

// HandleFunc wraps a callback that ignores the event payload.
func HandleFunc(fn func()) *Handler {
	return Handle(func(Event) { fn() })
}

// Call invokes the handler. A nil handler is a no-op.
func (h *Handler) Call(ev Event) {
	if h == nil || h.fn == nil {
		return
	}
	h.fn(ev)
}

// Handlers maps event names ("click", "input") to handlers.
// A nil entry is treated as no handler.
type Handlers map[string]*Handler

// Events returns the event names in sorted order.
func (h Handlers) Events() []string {
	return slices.Sorted(maps.Keys(h))
}
