// Package middleware provides net/http middleware for the live server.
//
// Both middlewares are plain func(http.Handler) http.Handler values and are
// meant to be installed on a chi router with Use, so that the matched route
// pattern is available once the request has been routed.
//
// # Prometheus Metrics
//
// Metrics collects request counts, durations and in-flight requests labelled
// by route pattern rather than by raw path:
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r := chi.NewRouter()
//	r.Use(m.Handler)
//
// # OpenTelemetry
//
// OpenTelemetry opens one server span per request and stores it in the
// request context:
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("livetree"),
//	    middleware.WithFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/metrics"
//	    }),
//	))
//
// The tracer comes from the global OpenTelemetry tracer provider unless
// WithTracer is given.
package middleware
