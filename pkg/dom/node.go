package dom

import (
	"maps"
	"slices"
	"strings"

	"github.com/vango-dev/livetree/pkg/vdom"
)

// Node is an element or text node of a Document. It implements
// vdom.LiveNode.
type Node struct {
	doc  *Document
	id   uint64
	tag  string // "" for text nodes
	text string

	attrs     map[string]string
	listeners map[string][]*vdom.Handler
	parent    *Node
	children  []*Node
}

var _ vdom.LiveNode = (*Node)(nil)

// ID returns the node's document-unique id.
func (n *Node) ID() uint64 { return n.id }

// Document returns the document that created n.
func (n *Node) Document() *Document { return n.doc }

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.tag == "" }

// Tag returns the element tag, or "" for a text node.
func (n *Node) Tag() string { return n.tag }

// Text returns the content of a text node, or the concatenated text of all
// descendant text nodes of an element.
func (n *Node) Text() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.IsText() {
		return n.text
	}
	var sb strings.Builder
	n.textContent(&sb)
	return sb.String()
}

func (n *Node) textContent(sb *strings.Builder) {
	for _, c := range n.children {
		if c.IsText() {
			sb.WriteString(c.text)
		} else {
			c.textContent(sb)
		}
	}
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	v, ok := n.attrs[name]
	return v, ok
}

// Attrs returns a copy of the attribute map.
func (n *Node) Attrs() map[string]string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	out := make(map[string]string, len(n.attrs))
	maps.Copy(out, n.attrs)
	return out
}

// Parent returns the parent node, or nil if n is detached.
func (n *Node) Parent() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.parent
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return slices.Clone(n.children)
}

// Listeners returns the handlers registered for event in registration order.
func (n *Node) Listeners(event string) []*vdom.Handler {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return slices.Clone(n.listeners[event])
}

// Events returns the events with at least one registered handler, sorted.
func (n *Node) Events() []string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	var out []string
	for event, hs := range n.listeners {
		if len(hs) > 0 {
			out = append(out, event)
		}
	}
	slices.Sort(out)
	return out
}

// ListenerCount returns the number of registrations held by n and its
// descendants.
func (n *Node) ListenerCount() int {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.listenerCount()
}

func (n *Node) listenerCount() int {
	total := 0
	for _, hs := range n.listeners {
		total += len(hs)
	}
	for _, c := range n.children {
		total += c.listenerCount()
	}
	return total
}

// SetAttribute implements vdom.LiveNode.
func (n *Node) SetAttribute(name, value string) error {
	if name == "" {
		return ErrEmptyName
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.IsText() {
		return ErrTextNode
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
	n.doc.record(Mutation{Op: OpSetAttr, Target: n.id, Key: name, Value: value})
	return nil
}

// RemoveAttribute implements vdom.LiveNode.
func (n *Node) RemoveAttribute(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.IsText() {
		return ErrTextNode
	}
	delete(n.attrs, name)
	n.doc.record(Mutation{Op: OpRemoveAttr, Target: n.id, Key: name})
	return nil
}

// AddEventListener implements vdom.LiveNode. Registering a handler that is
// already registered for event leaves a single registration.
func (n *Node) AddEventListener(event string, h *vdom.Handler) error {
	if event == "" {
		return ErrEmptyName
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.IsText() {
		return ErrTextNode
	}
	if !slices.Contains(n.listeners[event], h) {
		if n.listeners == nil {
			n.listeners = make(map[string][]*vdom.Handler)
		}
		n.listeners[event] = append(n.listeners[event], h)
	}
	n.doc.record(Mutation{Op: OpAddListener, Target: n.id, Key: event})
	return nil
}

// RemoveEventListener implements vdom.LiveNode. Removing a handler that is
// not registered is not an error.
func (n *Node) RemoveEventListener(event string, h *vdom.Handler) error {
	if event == "" {
		return ErrEmptyName
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.IsText() {
		return ErrTextNode
	}
	hs := slices.DeleteFunc(n.listeners[event], func(x *vdom.Handler) bool { return x == h })
	if len(hs) == 0 {
		delete(n.listeners, event)
	} else {
		n.listeners[event] = hs
	}
	n.doc.record(Mutation{Op: OpRemoveListener, Target: n.id, Key: event})
	return nil
}

// AppendChild implements vdom.LiveNode.
func (n *Node) AppendChild(child vdom.LiveNode) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	c, err := n.adopt(child)
	if err != nil {
		return err
	}
	n.children = append(n.children, c)
	c.parent = n
	n.doc.index(c)
	n.doc.record(Mutation{Op: OpAppendChild, Target: n.id, Child: c.id})
	return nil
}

// ReplaceChild implements vdom.LiveNode.
func (n *Node) ReplaceChild(newChild, oldChild vdom.LiveNode) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if n.IsText() {
		return ErrTextNode
	}
	old, err := n.own(oldChild)
	if err != nil {
		return err
	}
	i := slices.Index(n.children, old)
	if i < 0 {
		return ErrNotChild
	}
	c, err := n.adopt(newChild)
	if err != nil {
		return err
	}

	n.children[i] = c
	c.parent = n
	old.parent = nil
	n.doc.unindex(old)
	n.doc.index(c)
	n.doc.record(Mutation{Op: OpReplaceChild, Target: n.id, Child: c.id, Old: old.id})
	return nil
}

// RemoveChild implements vdom.LiveNode.
func (n *Node) RemoveChild(child vdom.LiveNode) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if n.IsText() {
		return ErrTextNode
	}
	c, err := n.own(child)
	if err != nil {
		return err
	}
	i := slices.Index(n.children, c)
	if i < 0 {
		return ErrNotChild
	}
	n.detachAt(i)
	return nil
}

// SetTextContent implements vdom.LiveNode.
func (n *Node) SetTextContent(text string) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if !n.IsText() {
		return ErrNotText
	}
	n.text = text
	n.doc.record(Mutation{Op: OpSetText, Target: n.id, Value: text})
	return nil
}

// Clear removes every child of n. Each removal is logged.
func (n *Node) Clear() error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.IsText() {
		return ErrTextNode
	}
	for len(n.children) > 0 {
		n.detachAt(0)
	}
	return nil
}

// detachAt removes the child at index i. Callers hold the document lock.
func (n *Node) detachAt(i int) {
	c := n.children[i]
	n.children = slices.Delete(n.children, i, i+1)
	c.parent = nil
	n.doc.unindex(c)
	n.doc.record(Mutation{Op: OpRemoveChild, Target: n.id, Child: c.id})
}

// own resolves a LiveNode created by the same document.
func (n *Node) own(ln vdom.LiveNode) (*Node, error) {
	c, ok := ln.(*Node)
	if !ok || c == nil || c.doc != n.doc {
		return nil, ErrForeignNode
	}
	return c, nil
}

// adopt checks that ln may become a child of n.
func (n *Node) adopt(ln vdom.LiveNode) (*Node, error) {
	if n.IsText() {
		return nil, ErrTextNode
	}
	c, err := n.own(ln)
	if err != nil {
		return nil, err
	}
	if c.parent != nil {
		return nil, ErrHasParent
	}
	for p := n; p != nil; p = p.parent {
		if p == c {
			return nil, ErrHierarchy
		}
	}
	return c, nil
}
