// Package server streams a live document to browsers.
//
// A Server owns the viewer side of one render root: it serves a page shell
// with the current HTML, streams every mutation batch over a WebSocket and
// forwards DOM events from the browser back into the document.
//
// # Routes
//
//	GET  /                      page shell with the server-rendered container
//	GET  /fragment              current container HTML with data-lt-id markers
//	GET  /ws                    binary stream of protocol frames
//	POST /dispatch/{id}/{event} fires event on node id
//	GET  /client.js             browser client
//	GET  /metrics               Prometheus metrics (Config.MetricsPath)
//
// # Stream
//
// A new subscriber first receives one FrameMutations frame with Replay set
// that rebuilds the container from empty. Every later frame carries the
// next sequence number; a viewer that sees a gap reconnects and replays.
//
// Frames are fanned out through a hub with one bounded queue per
// subscriber. A subscriber whose queue is full is dropped with a fatal
// ErrOverloaded error frame instead of stalling the render root.
//
// # Wiring
//
// The server is the render observer for its root:
//
//	doc := dom.New()
//	container := doc.Container("main")
//	srv := server.New(doc, container, nil)
//	root := render.NewRoot("app", doc, container, app, render.WithObserver(srv.Observe))
//	if err := root.Render(ctx); err != nil {
//	    return err
//	}
//	return srv.ListenAndServe(ctx, ":8080")
package server
