package main

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/vango-dev/livetree/internal/errors"
	"github.com/vango-dev/livetree/pkg/dom"
	"github.com/vango-dev/livetree/pkg/render"
	"github.com/vango-dev/livetree/pkg/snapshot"
	"github.com/vango-dev/livetree/pkg/vdom"
)

// loadSnapshot loads a snapshot file and converts decoding failures to
// coded errors that point at the offending line.
func loadSnapshot(path string, reg *snapshot.Registry) (vdom.Node, error) {
	n, err := snapshot.Load(path, reg)
	if err == nil {
		return n, nil
	}

	var se *snapshot.Error
	if !stderrors.As(err, &se) {
		return nil, errors.New("E100").WithDetail(path).Wrap(err)
	}

	code := "E101"
	switch {
	case stderrors.Is(err, snapshot.ErrMissingTag):
		code = "E102"
	case stderrors.Is(err, snapshot.ErrUnsupported):
		code = "E103"
	case stderrors.Is(err, snapshot.ErrAttrValue):
		code = "E104"
	}
	e := errors.New(code).WithDetail(se.Error()).Wrap(err)
	if se.Line > 0 {
		e = e.WithLocation(path, se.Line, se.Column)
	}
	return nil, e
}

// staticRoot renders whatever *current points at into a fresh document
// container.
type staticRoot struct {
	doc       *dom.Document
	container *dom.Node
	root      *render.Root
	current   vdom.Node
	last      render.Pass
}

func newStaticRoot(name string, logger *slog.Logger, maxPasses int) *staticRoot {
	s := &staticRoot{doc: dom.New()}
	s.container = s.doc.Container("body")
	s.root = render.NewRoot(name, s.doc, s.container,
		func(context.Context) vdom.Node { return s.current },
		render.WithLogger(logger),
		render.WithMaxPasses(maxPasses),
		render.WithObserver(func(_ context.Context, p render.Pass) { s.last = p }),
	)
	return s
}

// show renders n and returns the mutations the pass logged.
func (s *staticRoot) show(ctx context.Context, n vdom.Node) ([]dom.Mutation, error) {
	s.current = n
	if err := s.root.Render(ctx); err != nil {
		return nil, passError(err)
	}
	return s.doc.Flush(), nil
}

// passError picks the code for a failed render.
func passError(err error) error {
	code := "E001"
	switch {
	case stderrors.Is(err, render.ErrRenderLoop):
		code = "E002"
	case stderrors.Is(err, render.ErrReentrantRender):
		code = "E003"
	case stderrors.Is(err, vdom.ErrDisposal):
		code = "E004"
	case stderrors.Is(err, render.ErrComponentPanic), stderrors.Is(err, render.ErrNilSnapshot):
		code = "E005"
	}
	return errors.New(code).WithDetail(err.Error()).Wrap(err)
}

// snapshotStats counts the elements of n and how many of them listen for
// events.
func snapshotStats(n vdom.Node) (elements, interactive int) {
	vdom.Walk(n, func(c vdom.Node) bool {
		if el, ok := c.(*vdom.Element); ok {
			elements++
			if el.IsInteractive() {
				interactive++
			}
		}
		return true
	})
	return elements, interactive
}
