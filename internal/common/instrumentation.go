package common

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	metric2 "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// InitInstrumentation setups otel
func InitInstrumentation(serviceName, serviceVersion, serviceEnvironment, exporterEndpoint string) (func(ctx context.Context), error) {

	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
			semconv.DeploymentEnvironmentName(serviceEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to merge otel resource: %w", err)
	}

	// Metric exporter
	metricExporter, err := otlpmetricgrpc.New(
		context.Background(),
		otlpmetricgrpc.WithInsecure(),
		otlpmetricgrpc.WithEndpoint(exporterEndpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	metricsProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(metricExporter, metric.WithInterval(30*time.Second))),
	)
	otel.SetMeterProvider(metricsProvider)

	err = createCustomMeters(serviceName, serviceVersion, serviceEnvironment)
	if err != nil {
		_ = metricsProvider.Shutdown(context.Background())
		_ = metricExporter.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create custom meters: %w", err)
	}

	// Trace exporter
	traceExporter, err := otlptracegrpc.New(
		context.Background(),
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(exporterEndpoint),
	)
	if err != nil {
		_ = metricsProvider.Shutdown(context.Background())
		_ = metricExporter.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	traceProvider := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(traceProvider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) {
		_ = metricsProvider.Shutdown(ctx)
		_ = metricExporter.Shutdown(ctx)
		_ = traceProvider.Shutdown(ctx)
		_ = traceExporter.Shutdown(ctx)
	}, nil
}

// SeedPutsTotalIncr increases in 1 a metric tracking seed writes by result ("ok" or "error").
var SeedPutsTotalIncr = func(ctx context.Context, result string) {}

// ViewsTotalIncr increases in 1 a metric tracking computed views.
var ViewsTotalIncr = func(ctx context.Context, filtered bool) {}

// PlaysTotalIncr increases in 1 a metric tracking playback selections by result.
var PlaysTotalIncr = func(ctx context.Context, result string) {}

func createCustomMeters(serviceName, serviceVersion, serviceEnvironment string) error {
	meter := otel.Meter(serviceName)
	commonAttrs := []attribute.KeyValue{
		attribute.String(string(semconv.DeploymentEnvironmentNameKey), serviceEnvironment),
		attribute.String(string(semconv.ServiceVersionKey), serviceVersion),
	}

	seedPutsTotal, err := meter.Int64Counter("catalog_seed_puts_total")
	if err != nil {
		return fmt.Errorf("failed to create custom meter: %w", err)
	}
	viewsTotal, err := meter.Int64Counter("catalog_views_total")
	if err != nil {
		return fmt.Errorf("failed to create custom meter: %w", err)
	}
	playsTotal, err := meter.Int64Counter("catalog_plays_total")
	if err != nil {
		return fmt.Errorf("failed to create custom meter: %w", err)
	}

	SeedPutsTotalIncr = func(ctx context.Context, result string) {
		seedPutsTotal.Add(ctx, 1, metric2.WithAttributes(append(commonAttrs,
			attribute.String("result", result),
		)...))
	}
	ViewsTotalIncr = func(ctx context.Context, filtered bool) {
		viewsTotal.Add(ctx, 1, metric2.WithAttributes(append(commonAttrs,
			attribute.String("filtered", strconv.FormatBool(filtered)),
		)...))
	}
	PlaysTotalIncr = func(ctx context.Context, result string) {
		playsTotal.Add(ctx, 1, metric2.WithAttributes(append(commonAttrs,
			attribute.String("result", result),
		)...))
	}

	return nil
}
