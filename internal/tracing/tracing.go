// Package tracing configures the OpenTelemetry tracer provider.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
)

// Provider is a tracer provider that can be flushed on shutdown.
type Provider interface {
	trace.TracerProvider
	Shutdown(ctx context.Context) error
}

type noopProvider struct{ trace.TracerProvider }

func (noopProvider) Shutdown(context.Context) error { return nil }

// New returns a Jaeger-backed provider when endpoint is set and a no-op
// provider otherwise.
func New(endpoint, service string) (Provider, error) {
	if endpoint == "" {
		return noopProvider{trace.NewNoopTracerProvider()}, nil
	}
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return nil, err
	}
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(service),
		),
	)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(r),
	), nil
}
