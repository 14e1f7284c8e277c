package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTracerName is the instrumentation name of page spans.
const DefaultTracerName = "github.com/vango-dev/isopage"

// Tracer starts page lifecycle spans.
type Tracer struct {
	tracer trace.Tracer
}

// TracerOption configures a Tracer.
type TracerOption func(*tracerConfig)

type tracerConfig struct {
	name     string
	provider trace.TracerProvider
}

// WithTracerName sets the instrumentation name.
func WithTracerName(name string) TracerOption {
	return func(c *tracerConfig) {
		c.name = name
	}
}

// WithTracerProvider sets the provider. The default is the global provider.
func WithTracerProvider(provider trace.TracerProvider) TracerOption {
	return func(c *tracerConfig) {
		c.provider = provider
	}
}

// NewTracer creates a Tracer.
func NewTracer(opts ...TracerOption) *Tracer {
	config := tracerConfig{name: DefaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.provider == nil {
		return &Tracer{tracer: otel.Tracer(config.name)}
	}
	return &Tracer{tracer: config.provider.Tracer(config.name)}
}

// Start opens a span. On a nil Tracer it returns ctx and a no-op span.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, sets its status and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
