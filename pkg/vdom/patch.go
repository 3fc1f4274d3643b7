package vdom

import (
	"fmt"
	"slices"
)

// Patch reconciles the live node of old, which must be attached under
// parent, so that it matches next. old and next are the previous and next
// snapshot at the same tree position.
//
// A snapshot node may be reused only at the position it already holds.
// A node of next that is live somewhere else fails with ErrNodeReused.
//
// The old snapshot is only read. next receives the live references of the
// nodes it reuses. After Patch returns, old must not be disposed: the live
// nodes it pointed at now belong to next.
//
// Failures of the render target abort the pass and leave the live tree
// partially patched. Disposal failures do not abort; they are reported
// after the pass completes, wrapped in ErrDisposal.
func (r *Reconciler) Patch(old, next Node, parent LiveNode) error {
	if err := r.patch(old, next, parent); err != nil {
		r.deferred = r.deferred[:0]
		return err
	}
	return r.takeDeferred()
}

// PatchChildren aligns oldChildren and newChildren by position under parent.
// Nil entries have no live node and are skipped on both sides, exactly as
// Materialize skips them. Indexes are then walked in ascending order: a new
// child past the end of the old list is appended, an old child past the end
// of the new list is disposed and removed, and a pair is reconciled with
// Patch.
func (r *Reconciler) PatchChildren(parent LiveNode, oldChildren, newChildren []Node) error {
	if err := r.patchChildren(parent, oldChildren, newChildren); err != nil {
		r.deferred = r.deferred[:0]
		return err
	}
	return r.takeDeferred()
}

func (r *Reconciler) patch(old, next Node, parent LiveNode) error {
	if isNil(old) || isNil(next) {
		return ErrNilNode
	}
	if old.Live() == nil {
		return ErrNotMaterialized
	}
	if old != next && next.Live() != nil {
		return ErrNodeReused
	}

	switch o := old.(type) {
	case *TextNode:
		if n, ok := next.(*TextNode); ok {
			return r.patchText(o, n)
		}
	case *Element:
		if n, ok := next.(*Element); ok && n.Tag == o.Tag {
			return r.patchElement(o, n)
		}
	}
	return r.replace(old, next, parent)
}

// replace discards old and puts a fresh build of next in its place.
func (r *Reconciler) replace(old, next Node, parent LiveNode) error {
	r.deferDisposal(r.Dispose(old))

	live, err := r.Materialize(next)
	if err != nil {
		return err
	}
	if err := parent.ReplaceChild(live, old.Live()); err != nil {
		return fmt.Errorf("vdom: replace child: %w", err)
	}
	r.stats.Replaced++
	return nil
}

func (r *Reconciler) patchText(old, next *TextNode) error {
	next.live = old.live
	if old == next || old.Value == next.Value {
		return nil
	}
	if err := next.live.SetTextContent(next.Value); err != nil {
		return fmt.Errorf("vdom: set text: %w", err)
	}
	r.stats.TextUpdates++
	return nil
}

func (r *Reconciler) patchElement(old, next *Element) error {
	// The same snapshot node on both sides has nothing to reconcile.
	if old == next {
		return nil
	}

	live := old.live
	next.live = live
	next.listeners = nil

	if err := r.patchAttrs(live, old, next); err != nil {
		return err
	}
	if err := r.patchHandlers(live, old, next); err != nil {
		return err
	}
	return r.patchChildren(live, old.Children, next.Children)
}

func (r *Reconciler) patchAttrs(live LiveNode, old, next *Element) error {
	for _, name := range old.Attrs.Keys() {
		if next.Attrs.Has(name) || !old.Attrs[name].IsSet() {
			continue
		}
		if err := live.RemoveAttribute(name); err != nil {
			return fmt.Errorf("vdom: remove %s on <%s>: %w", name, next.Tag, err)
		}
		r.stats.AttrRemovals++
	}

	for _, name := range next.Attrs.Keys() {
		nv, ov := next.Attrs[name], old.Attrs[name]

		switch {
		case nv.IsPresence():
			if ov.IsPresence() {
				continue
			}
			if err := live.SetAttribute(name, ""); err != nil {
				return fmt.Errorf("vdom: set %s on <%s>: %w", name, next.Tag, err)
			}
			r.stats.AttrSets++

		case !nv.IsSet():
			if !ov.IsSet() {
				continue
			}
			if err := live.RemoveAttribute(name); err != nil {
				return fmt.Errorf("vdom: remove %s on <%s>: %w", name, next.Tag, err)
			}
			r.stats.AttrRemovals++

		default:
			if nv == ov {
				continue
			}
			if err := live.SetAttribute(name, nv.Text()); err != nil {
				return fmt.Errorf("vdom: set %s on <%s>: %w", name, next.Tag, err)
			}
			r.stats.AttrSets++
		}
	}
	return nil
}

func (r *Reconciler) patchHandlers(live LiveNode, old, next *Element) error {
	for _, event := range sortedEvents(old.listeners) {
		if next.Handlers[event] != nil {
			continue
		}
		if err := live.RemoveEventListener(event, old.listeners[event]); err != nil {
			return fmt.Errorf("vdom: unlisten %s on <%s>: %w", event, next.Tag, err)
		}
		r.stats.Unlistens++
	}

	for _, event := range next.Handlers.Events() {
		h := next.Handlers[event]
		if h == nil {
			continue
		}
		prev := old.listeners[event]
		if prev == h {
			next.attach(event, h)
			continue
		}
		if prev != nil {
			if err := live.RemoveEventListener(event, prev); err != nil {
				return fmt.Errorf("vdom: unlisten %s on <%s>: %w", event, next.Tag, err)
			}
			r.stats.Unlistens++
		}
		if err := live.AddEventListener(event, h); err != nil {
			return fmt.Errorf("vdom: listen %s on <%s>: %w", event, next.Tag, err)
		}
		next.attach(event, h)
		r.stats.Listens++
	}
	return nil
}

func (r *Reconciler) patchChildren(parent LiveNode, old, next []Node) error {
	old, next = compact(old), compact(next)
	n := max(len(old), len(next))

	for i := 0; i < n; i++ {
		var oldChild, nextChild Node
		if i < len(old) {
			oldChild = old[i]
		}
		if i < len(next) {
			nextChild = next[i]
		}

		switch {
		case isNil(oldChild):
			if nextChild.Live() != nil {
				return ErrNodeReused
			}
			live, err := r.Materialize(nextChild)
			if err != nil {
				return err
			}
			if err := parent.AppendChild(live); err != nil {
				return fmt.Errorf("vdom: append child %d: %w", i, err)
			}
			r.stats.Appended++

		case isNil(nextChild):
			live := oldChild.Live()
			if live == nil {
				return ErrNotMaterialized
			}
			r.deferDisposal(r.Dispose(oldChild))
			if err := parent.RemoveChild(live); err != nil {
				return fmt.Errorf("vdom: remove child %d: %w", i, err)
			}
			r.stats.Removed++

		default:
			if err := r.patch(oldChild, nextChild, parent); err != nil {
				return err
			}
		}
	}
	return nil
}

// compact returns nodes without nil entries. The slice is returned as is
// when it has none.
func compact(nodes []Node) []Node {
	for i, n := range nodes {
		if !isNil(n) {
			continue
		}
		out := slices.Clone(nodes[:i])
		for _, m := range nodes[i+1:] {
			if !isNil(m) {
				out = append(out, m)
			}
		}
		return out
	}
	return nodes
}
