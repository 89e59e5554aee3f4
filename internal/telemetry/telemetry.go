// Package telemetry configura OpenTelemetry (trazas) para la API y el CLI.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Exporters soportados.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config define a dónde van las trazas.
type Config struct {
	Exporter    string
	Endpoint    string // solo otlp, ej: "localhost:4317"
	ServiceName string
	Writer      io.Writer // solo stdout; nil = os.Stdout
}

// ShutdownFunc vacía y cierra el provider.
type ShutdownFunc func(ctx context.Context) error

// Setup instala un tracer provider global según el exporter configurado.
// Con "none" igual se instala un provider (sin exporter) para que los spans
// tengan ids y se propaguen.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "inventory-api"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	options := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	switch cfg.Exporter {
	case "", ExporterNone:
	case ExporterStdout:
		writer := cfg.Writer
		if writer == nil {
			writer = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(writer))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		// Síncrono: en stdout importa ver el span apenas termina.
		options = append(options, sdktrace.WithSyncer(exporter))
	case ExporterOTLP:
		grpcOptions := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
		if cfg.Endpoint != "" {
			grpcOptions = append(grpcOptions, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		exporter, err := otlptracegrpc.New(ctx, grpcOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
		}
		options = append(options, sdktrace.WithBatcher(exporter))
	default:
		return nil, fmt.Errorf("unknown trace exporter: %s", cfg.Exporter)
	}

	provider := sdktrace.NewTracerProvider(options...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}

// Middleware instrumenta el router con otelhttp.
// /health y /ready no generan spans.
func Middleware(serviceName string, options ...otelhttp.Option) func(http.Handler) http.Handler {
	options = append([]otelhttp.Option{
		otelhttp.WithFilter(func(request *http.Request) bool {
			return request.URL.Path != "/health" && request.URL.Path != "/ready"
		}),
		otelhttp.WithSpanNameFormatter(func(operation string, request *http.Request) string {
			return "HTTP " + request.Method + " " + request.URL.Path
		}),
	}, options...)

	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName, options...)
	}
}
