// Package telemetry installs the global OpenTelemetry tracer and meter providers.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "weather-mcp"

// Options selects and configures the span and metric exporters.
type Options struct {
	// Exporter is "none", "stdout" or "otlp".
	Exporter string
	// File receives stdout-exporter spans and metrics; empty means Writer, then stderr.
	File   string
	Writer io.Writer
	// Endpoint is the OTLP gRPC collector address, e.g. localhost:4317.
	Endpoint       string
	ServiceVersion string
}

// Shutdown flushes pending spans and metrics and releases exporter resources.
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs a tracer provider and a meter provider for opts.Exporter.
// With "none" the global no-op providers are left in place.
func Setup(ctx context.Context, opts Options) (Shutdown, error) {
	var (
		exporter       sdktrace.SpanExporter
		metricExporter sdkmetric.Exporter
		closer         io.Closer
		err            error
	)

	switch opts.Exporter {
	case "", "none":
		return noopShutdown, nil
	case "stdout":
		w := opts.Writer
		if opts.File != "" {
			if dir := filepath.Dir(opts.File); dir != "" && dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, err
				}
			}
			f, ferr := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if ferr != nil {
				return nil, fmt.Errorf("open trace file: %w", ferr)
			}
			w, closer = f, f
		}
		if w == nil {
			w = os.Stderr
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w))
		if err == nil {
			if metricExporter, err = stdoutmetric.New(stdoutmetric.WithWriter(w)); err != nil {
				_ = exporter.Shutdown(ctx)
			}
		}
	case "otlp":
		if opts.Endpoint == "" {
			return nil, errors.New("otlp exporter requires an endpoint")
		}
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(opts.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err == nil {
			metricExporter, err = otlpmetricgrpc.New(ctx,
				otlpmetricgrpc.WithEndpoint(opts.Endpoint),
				otlpmetricgrpc.WithInsecure(),
			)
			if err != nil {
				_ = exporter.Shutdown(ctx)
			}
		}
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", opts.Exporter)
	}
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("create %s exporter: %w", opts.Exporter, err)
	}

	attrs := []attribute.KeyValue{attribute.String("service.name", ServiceName)}
	if opts.ServiceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", opts.ServiceVersion))
	}

	res := resource.NewSchemaless(attrs...)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		err := errors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx))
		if closer != nil {
			err = errors.Join(err, closer.Close())
		}
		return err
	}, nil
}
