package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/session"
)

const defaultTracerName = "reconcile"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "reconcile").
	TracerName string

	// TracerProvider supplies the tracer. Defaults to the global provider.
	TracerProvider trace.TracerProvider

	// Filter determines which events to trace.
	// Return true to trace the event, false to skip.
	// If nil, all events are traced.
	Filter func(ev dom.Event) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(ctx context.Context, ev dom.Event) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithEventFilter sets a filter function for events.
func WithEventFilter(filter func(ev dom.Event) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ctx context.Context, ev dom.Event) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OpenTelemetry creates middleware that traces every dispatch cycle.
//
// Each span is named "reconcile.<kind>" and carries the session ID and
// event kind. When the dispatch returns, the target path, whether a handler
// ran and the patch count are added. Errors are recorded on the span.
//
// The span context is passed down the chain, so handlers reached through
// later middleware see it in ctx.
func OpenTelemetry(opts ...OTelOption) session.Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(config.TracerName)

	return func(ctx context.Context, ev dom.Event, next session.DispatchFunc) (session.Result, error) {
		if config.Filter != nil && !config.Filter(ev) {
			return next(ctx, ev)
		}

		attrs := []attribute.KeyValue{
			attribute.String("reconcile.event_kind", string(ev.Kind)),
		}
		if id, ok := session.IDFromContext(ctx); ok {
			attrs = append(attrs, attribute.String("reconcile.session_id", id))
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(ctx, ev)...)
		}

		spanCtx, span := tracer.Start(ctx, "reconcile."+string(ev.Kind),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		res, err := next(spanCtx, ev)

		span.SetAttributes(
			attribute.String("reconcile.path", res.Path.String()),
			attribute.Bool("reconcile.handled", res.Handled),
			attribute.Int("reconcile.patch_count", len(res.Patches)),
			attribute.Int64("reconcile.seq", int64(res.Seq)),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return res, err
	}
}

// SpanFromContext returns the dispatch span carried by ctx, or nil when ctx
// has none.
func SpanFromContext(ctx context.Context) trace.Span {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() && !span.IsRecording() {
		return nil
	}
	return span
}
