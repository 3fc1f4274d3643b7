package vdom

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement Kind = iota // <div>, <button>, etc.
	KindText                // Plain text node
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// Node is a snapshot node. The only implementations are *Element and *TextNode.
type Node interface {
	// Kind reports which variant the node is.
	Kind() Kind

	// Live returns the render-target node this snapshot node is mirrored by,
	// or nil if it has not been materialized or reconciled yet.
	Live() LiveNode

	node()
}

// Element represents one render-target element.
type Element struct {
	Tag      string   // Element tag name (e.g., "div")
	Attrs    Attrs    // Attribute name -> value
	Handlers Handlers // Event name -> handler
	Children []Node   // Positional children

	live LiveNode

	// listeners records the registrations currently attached to live.
	// It is what Dispose and handler reconciliation detach, which may
	// differ from Handlers if a registration failed midway.
	listeners map[string]*Handler
}

// TextNode represents a run of literal text.
type TextNode struct {
	Value string

	live LiveNode
}

// Kind implements Node.
func (e *Element) Kind() Kind { return KindElement }

// Live implements Node.
func (e *Element) Live() LiveNode {
	if e == nil {
		return nil
	}
	return e.live
}

func (*Element) node() {}

// Kind implements Node.
func (t *TextNode) Kind() Kind { return KindText }

// Live implements Node.
func (t *TextNode) Live() LiveNode {
	if t == nil {
		return nil
	}
	return t.live
}

func (*TextNode) node() {}

// Attached returns the handler currently registered on the live element for
// event, or nil.
func (e *Element) Attached(event string) *Handler {
	return e.listeners[event]
}

// attach records a successful registration.
func (e *Element) attach(event string, h *Handler) {
	if e.listeners == nil {
		e.listeners = make(map[string]*Handler, len(e.Handlers))
	}
	e.listeners[event] = h
}

// detach forgets a registration.
func (e *Element) detach(event string) {
	delete(e.listeners, event)
}

// IsInteractive returns true if this element has event handlers.
func (e *Element) IsInteractive() bool {
	if e == nil {
		return false
	}
	for _, h := range e.Handlers {
		if h != nil {
			return true
		}
	}
	return false
}

// isNil reports whether n is nil or a typed nil pointer.
func isNil(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Element:
		return v == nil
	case *TextNode:
		return v == nil
	default:
		return false
	}
}

// Walk calls fn for n and each of its descendants in depth-first order.
// Walking stops early if fn returns false.
func Walk(n Node, fn func(Node) bool) bool {
	if isNil(n) {
		return true
	}
	if !fn(n) {
		return false
	}
	if el, ok := n.(*Element); ok {
		for _, child := range el.Children {
			if !Walk(child, fn) {
				return false
			}
		}
	}
	return true
}
