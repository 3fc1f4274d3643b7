// Package domtest wraps a dom.Document so tests can make individual
// render-target primitives fail.
package domtest

import (
	"errors"
	"sync"

	"github.com/vango-dev/livetree/pkg/dom"
	"github.com/vango-dev/livetree/pkg/vdom"
)

// ErrInjected is the error returned by FailOn.
var ErrInjected = errors.New("domtest: injected failure")

// Call describes one primitive about to run.
type Call struct {
	Method string    // "CreateElement", "SetAttribute", "RemoveEventListener", ...
	Node   *dom.Node // Receiver, nil for document calls
	Name   string    // Tag, attribute name or event name
}

// Document is a vdom.Document whose nodes consult a hook before every
// primitive. A non-nil error from the hook is returned instead of running
// the primitive.
type Document struct {
	*dom.Document

	mu   sync.Mutex
	hook func(Call) error
}

var _ vdom.Document = (*Document)(nil)

// Wrap returns a faulty view of d.
func Wrap(d *dom.Document) *Document {
	return &Document{Document: d}
}

// FailWhen installs hook. A nil hook disables fault injection.
func (d *Document) FailWhen(hook func(Call) error) {
	d.mu.Lock()
	d.hook = hook
	d.mu.Unlock()
}

// FailOn makes every call of method on a node with the given tag fail with
// ErrInjected. An empty tag matches any node.
func (d *Document) FailOn(method, tag string) {
	d.FailWhen(func(c Call) error {
		if c.Method != method {
			return nil
		}
		if tag != "" && (c.Node == nil || c.Node.Tag() != tag) {
			return nil
		}
		return ErrInjected
	})
}

func (d *Document) check(c Call) error {
	d.mu.Lock()
	hook := d.hook
	d.mu.Unlock()
	if hook == nil {
		return nil
	}
	return hook(c)
}

// Wrap wraps n so its primitives pass through the hook.
func (d *Document) Wrap(n *dom.Node) *Node {
	return &Node{Node: n, doc: d}
}

// CreateElement implements vdom.Document.
func (d *Document) CreateElement(tag string) (vdom.LiveNode, error) {
	if err := d.check(Call{Method: "CreateElement", Name: tag}); err != nil {
		return nil, err
	}
	n, err := d.Document.CreateElement(tag)
	if err != nil {
		return nil, err
	}
	return d.Wrap(n.(*dom.Node)), nil
}

// CreateTextNode implements vdom.Document.
func (d *Document) CreateTextNode(text string) (vdom.LiveNode, error) {
	if err := d.check(Call{Method: "CreateTextNode"}); err != nil {
		return nil, err
	}
	n, err := d.Document.CreateTextNode(text)
	if err != nil {
		return nil, err
	}
	return d.Wrap(n.(*dom.Node)), nil
}

// Node is a dom.Node whose primitives can be made to fail.
type Node struct {
	*dom.Node
	doc *Document
}

var _ vdom.LiveNode = (*Node)(nil)

// Unwrap returns the dom.Node behind ln.
func Unwrap(ln vdom.LiveNode) *dom.Node {
	switch n := ln.(type) {
	case *Node:
		return n.Node
	case *dom.Node:
		return n
	default:
		return nil
	}
}

func (n *Node) check(method, name string) error {
	return n.doc.check(Call{Method: method, Node: n.Node, Name: name})
}

func (n *Node) SetAttribute(name, value string) error {
	if err := n.check("SetAttribute", name); err != nil {
		return err
	}
	return n.Node.SetAttribute(name, value)
}

func (n *Node) RemoveAttribute(name string) error {
	if err := n.check("RemoveAttribute", name); err != nil {
		return err
	}
	return n.Node.RemoveAttribute(name)
}

func (n *Node) AddEventListener(event string, h *vdom.Handler) error {
	if err := n.check("AddEventListener", event); err != nil {
		return err
	}
	return n.Node.AddEventListener(event, h)
}

func (n *Node) RemoveEventListener(event string, h *vdom.Handler) error {
	if err := n.check("RemoveEventListener", event); err != nil {
		return err
	}
	return n.Node.RemoveEventListener(event, h)
}

func (n *Node) AppendChild(child vdom.LiveNode) error {
	if err := n.check("AppendChild", ""); err != nil {
		return err
	}
	return n.Node.AppendChild(Unwrap(child))
}

func (n *Node) ReplaceChild(newChild, oldChild vdom.LiveNode) error {
	if err := n.check("ReplaceChild", ""); err != nil {
		return err
	}
	return n.Node.ReplaceChild(Unwrap(newChild), Unwrap(oldChild))
}

func (n *Node) RemoveChild(child vdom.LiveNode) error {
	if err := n.check("RemoveChild", ""); err != nil {
		return err
	}
	return n.Node.RemoveChild(Unwrap(child))
}

func (n *Node) SetTextContent(text string) error {
	if err := n.check("SetTextContent", ""); err != nil {
		return err
	}
	return n.Node.SetTextContent(text)
}

func (n *Node) Clear() error {
	if err := n.check("Clear", ""); err != nil {
		return err
	}
	return n.Node.Clear()
}
