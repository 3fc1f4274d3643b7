package vdom

import "fmt"

// Materialize builds the live counterpart of n from scratch and records it as
// n's live node. Every child is materialized and appended in order, every set
// attribute is applied and every handler is registered. No diffing happens.
func (r *Reconciler) Materialize(n Node) (LiveNode, error) {
	switch v := n.(type) {
	case *TextNode:
		if v == nil {
			return nil, ErrNilNode
		}
		live, err := r.doc.CreateTextNode(v.Value)
		if err != nil {
			return nil, fmt.Errorf("vdom: create text node: %w", err)
		}
		v.live = live
		r.stats.Created++
		return live, nil

	case *Element:
		if v == nil {
			return nil, ErrNilNode
		}
		return r.materializeElement(v)

	default:
		return nil, ErrNilNode
	}
}

func (r *Reconciler) materializeElement(el *Element) (LiveNode, error) {
	if el.Tag == "" {
		return nil, ErrEmptyTag
	}

	live, err := r.doc.CreateElement(el.Tag)
	if err != nil {
		return nil, fmt.Errorf("vdom: create <%s>: %w", el.Tag, err)
	}
	// Recorded before anything else so a failure below still leaves a
	// disposable element.
	el.live = live
	el.listeners = nil
	r.stats.Created++

	for _, name := range el.Attrs.Keys() {
		v := el.Attrs[name]
		if !v.IsSet() {
			continue
		}
		if err := live.SetAttribute(name, v.Text()); err != nil {
			return nil, fmt.Errorf("vdom: set %s on <%s>: %w", name, el.Tag, err)
		}
		r.stats.AttrSets++
	}

	for _, event := range el.Handlers.Events() {
		h := el.Handlers[event]
		if h == nil {
			continue
		}
		if err := live.AddEventListener(event, h); err != nil {
			return nil, fmt.Errorf("vdom: listen %s on <%s>: %w", event, el.Tag, err)
		}
		el.attach(event, h)
		r.stats.Listens++
	}

	for _, child := range el.Children {
		if isNil(child) {
			continue
		}
		childLive, err := r.Materialize(child)
		if err != nil {
			return nil, err
		}
		if err := live.AppendChild(childLive); err != nil {
			return nil, fmt.Errorf("vdom: append to <%s>: %w", el.Tag, err)
		}
	}

	return live, nil
}
