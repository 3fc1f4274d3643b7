package vdom

// Document creates render-target nodes.
type Document interface {
	// CreateElement creates a detached element named tag.
	CreateElement(tag string) (LiveNode, error)

	// CreateTextNode creates a detached text node holding text.
	CreateTextNode(text string) (LiveNode, error)
}

// LiveNode is a mutable render-target node. Together with Document it forms
// the complete set of primitives the reconciler needs; nothing else about
// the concrete target is assumed.
type LiveNode interface {
	// SetAttribute sets name to value. The presence form of a boolean
	// attribute is SetAttribute(name, "").
	SetAttribute(name, value string) error

	// RemoveAttribute removes name. Removing a missing attribute is not an error.
	RemoveAttribute(name string) error

	// AddEventListener registers h for event.
	AddEventListener(event string, h *Handler) error

	// RemoveEventListener removes exactly the registration of h for event.
	RemoveEventListener(event string, h *Handler) error

	// AppendChild appends child as the last child.
	AppendChild(child LiveNode) error

	// ReplaceChild puts newChild where oldChild is and detaches oldChild.
	ReplaceChild(newChild, oldChild LiveNode) error

	// RemoveChild detaches child.
	RemoveChild(child LiveNode) error

	// SetTextContent overwrites the content of a text node.
	SetTextContent(text string) error
}
