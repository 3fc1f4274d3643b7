// Package render drives reconciliation for a render root.
//
// A Root binds a Component to a container node. The first pass empties the
// container and materializes the component's snapshot; every later pass
// patches the current snapshot to the new one:
//
//	EMPTY ──Render──▶ MATERIALIZED ──Render──▶ MATERIALIZED
//	  ▲                    │
//	  └────failed pass─────┘
//
// A failed pass releases every registration reachable from the current and
// the attempted snapshot, empties the container and drops back to EMPTY,
// so the next pass rebuilds from scratch.
//
// # Concurrency
//
// Passes for one Root never overlap. Render blocks while another pass is
// running; Notify never blocks on a running pass but folds into it, so any
// number of Notify calls during a pass yield one follow-up pass. A drain is
// bounded by WithMaxPasses.
//
// Components receive the pass context. Calling Render with it returns
// ErrReentrantRender:
//
//	root := render.NewRoot("counter", doc, container, func(ctx context.Context) vdom.Node {
//	    return vdom.Button(vdom.OnClick(inc), vdom.Textf("%d", count))
//	})
//	if err := root.Render(ctx); err != nil {
//	    // the root is EMPTY again
//	}
//
// # Observability
//
// Each pass is logged with log/slog, traced as one OpenTelemetry span and,
// with WithMetrics, recorded in Prometheus collectors. Observers added with
// WithObserver receive every Pass in order.
package render
