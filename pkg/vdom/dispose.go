package vdom

import (
	"errors"
	"fmt"
)

// Dispose removes every event registration attached under n before the
// subtree is discarded. Text nodes have nothing to release.
//
// Disposal is best effort: a failing removal does not stop the walk, each
// registration is forgotten once it has been attempted, and all failures
// are returned joined. Disposing the same subtree twice is a no-op.
func (r *Reconciler) Dispose(n Node) error {
	el, ok := n.(*Element)
	if !ok || el == nil {
		return nil
	}

	var errs []error
	if el.live != nil && len(el.listeners) > 0 {
		for _, event := range sortedEvents(el.listeners) {
			if err := el.live.RemoveEventListener(event, el.listeners[event]); err != nil {
				errs = append(errs, fmt.Errorf("unlisten %s on <%s>: %w", event, el.Tag, err))
			} else {
				r.stats.Unlistens++
			}
			el.detach(event)
		}
		r.stats.Disposed++
	}

	for _, child := range el.Children {
		if err := r.Dispose(child); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
