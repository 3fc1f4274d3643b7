package vdom

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Reconciliation errors.
var (
	ErrNilNode         = errors.New("vdom: nil node")
	ErrEmptyTag        = errors.New("vdom: element has empty tag")
	ErrNotMaterialized = errors.New("vdom: node has no live counterpart")
	ErrDisposal        = errors.New("vdom: disposal incomplete")
	ErrNodeReused      = errors.New("vdom: node already belongs to another position")
)

// Stats counts what a Reconciler did to the render target.
type Stats struct {
	Created      int // Nodes created (materialized)
	Replaced     int // Subtrees rebuilt on kind or tag change
	Appended     int // Children appended during alignment
	Removed      int // Children removed during alignment
	Disposed     int // Elements whose registrations were released
	TextUpdates  int // Text nodes overwritten in place
	AttrSets     int // SetAttribute calls
	AttrRemovals int // RemoveAttribute calls
	Listens      int // AddEventListener calls
	Unlistens    int // RemoveEventListener calls
}

// Mutations returns the number of render-target calls that changed state.
func (s Stats) Mutations() int {
	return s.Created + s.Replaced + s.Appended + s.Removed + s.TextUpdates +
		s.AttrSets + s.AttrRemovals + s.Listens + s.Unlistens
}

// Add returns the sum of s and o.
func (s Stats) Add(o Stats) Stats {
	s.Created += o.Created
	s.Replaced += o.Replaced
	s.Appended += o.Appended
	s.Removed += o.Removed
	s.Disposed += o.Disposed
	s.TextUpdates += o.TextUpdates
	s.AttrSets += o.AttrSets
	s.AttrRemovals += o.AttrRemovals
	s.Listens += o.Listens
	s.Unlistens += o.Unlistens
	return s
}

// Reconciler materializes, patches and disposes snapshots against one
// Document. It is not safe for concurrent use; a render root owns one.
type Reconciler struct {
	doc   Document
	stats Stats

	// disposal failures seen during the current Patch call
	deferred []error
}

// NewReconciler creates a Reconciler for doc.
func NewReconciler(doc Document) *Reconciler {
	return &Reconciler{doc: doc}
}

// Stats returns the counters accumulated since the last ResetStats.
func (r *Reconciler) Stats() Stats {
	return r.stats
}

// ResetStats zeroes the counters.
func (r *Reconciler) ResetStats() {
	r.stats = Stats{}
}

// deferDisposal records a disposal failure without aborting the pass.
func (r *Reconciler) deferDisposal(err error) {
	if err != nil {
		r.deferred = append(r.deferred, err)
	}
}

// takeDeferred returns the recorded disposal failures as one error.
func (r *Reconciler) takeDeferred() error {
	if len(r.deferred) == 0 {
		return nil
	}
	err := fmt.Errorf("%w: %w", ErrDisposal, errors.Join(r.deferred...))
	r.deferred = r.deferred[:0]
	return err
}

func sortedEvents(m map[string]*Handler) []string {
	return slices.Sorted(maps.Keys(m))
}
