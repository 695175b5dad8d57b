// Package middleware provides dispatch middleware for sessions.
//
// Middleware wraps every dispatch cycle of a session and sees the event
// before the cycle and its Result after:
//
//	sess, err := session.Mount(doc, "root", app,
//	    session.WithMiddleware(
//	        middleware.Logging(logger),
//	        middleware.OpenTelemetry(),
//	        middleware.Prometheus(),
//	    ),
//	)
//
// # OpenTelemetry
//
// OpenTelemetry starts one span per dispatch named after the event kind and
// records the target path, whether a handler ran and the patch count. The
// tracer comes from the global provider unless WithTracerProvider is given:
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithEventFilter(func(ev dom.Event) bool {
//	        return ev.Kind != vdom.EventInput
//	    }),
//	)
//
// # Prometheus
//
// Prometheus counts dispatches by kind and status, patch operations by op
// and desyncs, and observes dispatch duration. Expose the metrics with
// promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # Logging
//
// Logging writes one slog line per dispatch with the session ID, event
// kind, target path and patch count.
package middleware
