package vdom

// Listener is an event-handler fragment applied to an element under
// construction.
type Listener struct {
	Event   string   // "click", "input", etc.
	Handler *Handler // Registered handler; nil means none
}

// On binds h to event.
func On(event string, h *Handler) Listener {
	return Listener{Event: event, Handler: h}
}

// Mouse events

// OnClick handles click events.
func OnClick(h *Handler) Listener { return On("click", h) }

// OnDblClick handles double-click events.
func OnDblClick(h *Handler) Listener { return On("dblclick", h) }

// OnMouseEnter handles mouseenter events.
func OnMouseEnter(h *Handler) Listener { return On("mouseenter", h) }

// OnMouseLeave handles mouseleave events.
func OnMouseLeave(h *Handler) Listener { return On("mouseleave", h) }

// Keyboard events

// OnKeyDown handles keydown events.
func OnKeyDown(h *Handler) Listener { return On("keydown", h) }

// OnKeyUp handles keyup events.
func OnKeyUp(h *Handler) Listener { return On("keyup", h) }

// Form events

// OnInput handles input events (fired when value changes).
func OnInput(h *Handler) Listener { return On("input", h) }

// OnChange handles change events (fired when value is committed).
func OnChange(h *Handler) Listener { return On("change", h) }

// OnSubmit handles form submit events.
func OnSubmit(h *Handler) Listener { return On("submit", h) }

// OnFocus handles focus events.
func OnFocus(h *Handler) Listener { return On("focus", h) }

// OnBlur handles blur events.
func OnBlur(h *Handler) Listener { return On("blur", h) }
