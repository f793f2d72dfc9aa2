// Package telemetry provides OpenTelemetry tracing setup and a scoped
// span helper used around every handler and store operation.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this instrumentation scope.
const tracerName = "github.com/usermeta/usermeta"

// Init configures the global tracer provider with a JSON stdout exporter
// and a resource carrying the service identity. The returned provider
// must be shut down on process exit to flush pending spans.
//
// A console exporter is fine for this service's deployment model; swap in
// an OTLP exporter here when a collector is available.
func Init(ctx context.Context, serviceName, serviceVersion string) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider, nil
}

// Tracer returns the tracer for this service's instrumentation scope.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Span wraps an OpenTelemetry span with the small surface the rest of the
// code needs: string attributes, error recording, and a single End that is
// safe to defer on every exit path.
type Span struct {
	span trace.Span
}

// StartSpan opens a named span as a child of whatever span is carried by
// ctx, tagging it with the given attributes.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Span) {
	spanCtx, span := Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
	return spanCtx, &Span{span: span}
}

// SetAttribute attaches a string attribute to the span.
func (s *Span) SetAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// RecordError records err on the span and marks the span status as failed.
// A nil err is a no-op so callers can funnel every outcome through it.
func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// End completes the span.
func (s *Span) End() {
	s.span.End()
}
