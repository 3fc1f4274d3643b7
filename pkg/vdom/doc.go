// Package vdom provides the tree model and reconciliation engine for livetree.
//
// A snapshot is an immutable tree of Node values built fresh on every render
// pass. Node is a closed sum type: *Element and *TextNode. Elements carry
// attributes, event handlers and positional children.
//
// # Element API
//
// Snapshots are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1("Title"),
//	    P(Text("Content")),
//	    OnClick(increment),
//	)
//
// Handlers are compared by identity. Handle mints a *Handler once; reusing
// the same *Handler across renders keeps the live registration untouched.
//
// # Reconciliation
//
// A Reconciler works against a render target described by Document and
// LiveNode. Materialize builds live nodes for a snapshot from scratch.
// Patch moves a live tree from matching an old snapshot to matching a new one
// with the minimal set of attribute, handler and child mutations. Children are
// aligned by position; there are no keys. Dispose removes the event
// registrations of a subtree that is being discarded.
package vdom
