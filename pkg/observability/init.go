package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// tracerName identifies the oxidiff tracer.
const tracerName = "oxidiff"

// Providers holds the initialized observability providers.
type Providers struct {
	// Tracer is the named tracer for creating pipeline spans.
	Tracer trace.Tracer

	// Shutdown flushes and stops the providers. Safe to call on a
	// noop setup.
	Shutdown func(context.Context) error
}

// Config selects the tracing backend.
type Config struct {
	// Endpoint is the OTLP gRPC collector endpoint. Empty disables
	// export; spans become noops.
	Endpoint string

	// ServiceName overrides the reported service name.
	ServiceName string

	// ServiceVersion is the reported service version.
	ServiceVersion string
}

// Init sets up tracing. Without an endpoint it returns noop providers so
// callers never branch on whether tracing is enabled.
func Init(ctx context.Context, cfg Config) (*Providers, error) {
	if cfg.Endpoint == "" {
		return &Providers{
			Tracer:   nooptrace.NewTracerProvider().Tracer(tracerName),
			Shutdown: func(context.Context) error { return nil },
		}, nil
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = tracerName
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp trace exporter: %w", err)
	}

	res, resErr := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if resErr != nil {
		return nil, fmt.Errorf("build otel resource: %w", resErr)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)

	return &Providers{
		Tracer:   provider.Tracer(tracerName),
		Shutdown: provider.Shutdown,
	}, nil
}
