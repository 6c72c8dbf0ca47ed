package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const metricInterval = 10 * time.Second

// OpenTelemetryConfig selects exporters for traces and metrics.
type OpenTelemetryConfig struct {
	Enabled           bool
	OTLPEndpoint      string
	OTLPTraceHeaders  map[string]string
	OTLPMetricHeaders map[string]string
	ServiceName       string
	ServiceVer        string
	SamplingRatio     float64
	MetricsConsole    bool
	// Environment and CustodyMode end up as resource attributes so settlement
	// telemetry from memory custody is never mistaken for production.
	Environment string
	CustodyMode string
}

type shutdownFunc func(context.Context) error

// SetupOpenTelemetry installs the global tracer and meter providers. Every
// span started under WithStorefront carries storefront.id.
func SetupOpenTelemetry(ctx context.Context, log *slog.Logger, cfg OpenTelemetryConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := storefrontResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var shutdowns []shutdownFunc
	tracerShutdown, err := setupTracing(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	if tracerShutdown != nil {
		shutdowns = append(shutdowns, tracerShutdown)
	}
	meterShutdown, err := setupMetrics(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	if meterShutdown != nil {
		shutdowns = append(shutdowns, meterShutdown)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	// Custody and relay clients use the default transport.
	http.DefaultTransport = otelhttp.NewTransport(http.DefaultTransport)
	http.DefaultClient.Transport = http.DefaultTransport

	log.Info("OpenTelemetry enabled",
		"service", cfg.ServiceName,
		"version", cfg.ServiceVer,
		"environment", cfg.Environment,
		"custody_mode", cfg.CustodyMode,
		"traces_enabled", tracerShutdown != nil,
		"metrics_console", cfg.MetricsConsole,
		"metrics_otlp", cfg.OTLPEndpoint != "",
	)

	return func(shutdownCtx context.Context) error {
		var firstErr error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			if err := shutdowns[i](shutdownCtx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}, nil
}

func storefrontResource(ctx context.Context, cfg OpenTelemetryConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVer),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentName(cfg.Environment))
	}
	if cfg.CustodyMode != "" {
		attrs = append(attrs, attribute.String("storefront.custody.mode", cfg.CustodyMode))
	}
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}
	return res, nil
}

// setupTracing returns a nil shutdown when no trace exporter is configured.
func setupTracing(ctx context.Context, cfg OpenTelemetryConfig, res *resource.Resource) (shutdownFunc, error) {
	if cfg.OTLPEndpoint == "" && len(cfg.OTLPTraceHeaders) == 0 {
		return nil, nil
	}
	var options []otlptracehttp.Option
	if cfg.OTLPEndpoint != "" {
		options = append(options, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	}
	if len(cfg.OTLPTraceHeaders) > 0 {
		options = append(options, otlptracehttp.WithHeaders(cfg.OTLPTraceHeaders))
	}
	exporter, err := otlptracehttp.New(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("create otlp trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(configuredSampler(cfg.SamplingRatio)),
		sdktrace.WithSpanProcessor(storefrontSpanProcessor{}),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// setupMetrics returns a nil shutdown when no metric reader is configured.
func setupMetrics(ctx context.Context, cfg OpenTelemetryConfig, res *resource.Resource) (shutdownFunc, error) {
	options := []sdkmetric.Option{sdkmetric.WithResource(res)}
	readers := 0
	if cfg.OTLPEndpoint != "" {
		metricOptions := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(cfg.OTLPEndpoint)}
		if len(cfg.OTLPMetricHeaders) > 0 {
			metricOptions = append(metricOptions, otlpmetrichttp.WithHeaders(cfg.OTLPMetricHeaders))
		}
		exporter, err := otlpmetrichttp.New(ctx, metricOptions...)
		if err != nil {
			return nil, fmt.Errorf("create otlp metric exporter: %w", err)
		}
		options = append(options, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricInterval))))
		readers++
	}
	if cfg.MetricsConsole {
		exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		options = append(options, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricInterval))))
		readers++
	}
	if readers == 0 {
		return nil, nil
	}
	provider := sdkmetric.NewMeterProvider(options...)
	otel.SetMeterProvider(provider)
	return provider.Shutdown, nil
}

// storefrontSpanProcessor copies the storefront and engine operation from the
// parent context onto every span, including db spans started by the store.
type storefrontSpanProcessor struct{}

func (storefrontSpanProcessor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if storefrontID, ok := StorefrontIDFromContext(parent); ok {
		s.SetAttributes(attribute.String("storefront.id", storefrontID))
	}
	if operation, ok := OperationFromContext(parent); ok {
		s.SetAttributes(attribute.String("storefront.operation", operation))
	}
}

func (storefrontSpanProcessor) OnEnd(sdktrace.ReadOnlySpan)      {}
func (storefrontSpanProcessor) Shutdown(context.Context) error   { return nil }
func (storefrontSpanProcessor) ForceFlush(context.Context) error { return nil }

func configuredSampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}
