package dom

import (
	"fmt"
	"slices"

	"github.com/vango-dev/livetree/pkg/vdom"
)

// Dispatch fires event on the node with the given id. Handlers registered on
// the node run first, in registration order, then the event bubbles to each
// ancestor in turn. It returns the number of handlers called.
//
// Handlers run without the document lock held, so they may mutate the
// document or trigger a render pass.
func (d *Document) Dispatch(id uint64, event string, data map[string]string) (int, error) {
	d.mu.Lock()
	target, ok := d.nodes[id]
	if !ok {
		d.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	var chain []*vdom.Handler
	for n := target; n != nil; n = n.parent {
		chain = append(chain, n.listeners[event]...)
	}
	chain = slices.Clip(chain)
	d.mu.Unlock()

	ev := vdom.Event{Type: event, Target: target, Data: data}
	for _, h := range chain {
		h.Call(ev)
	}
	return len(chain), nil
}
