package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const metricExportInterval = 10 * time.Second

// OpenTelemetryConfig selects exporters. Traces need an OTLP endpoint or
// trace headers; metrics go to OTLP and/or stdout.
type OpenTelemetryConfig struct {
	Enabled           bool
	OTLPEndpoint      string
	OTLPTraceHeaders  map[string]string
	OTLPMetricHeaders map[string]string
	ServiceName       string
	ServiceVer        string
	SamplingRatio     float64
	MetricsConsole    bool
}

func (c OpenTelemetryConfig) tracesEnabled() bool {
	return c.OTLPEndpoint != "" || len(c.OTLPTraceHeaders) > 0
}

type shutdownFunc func(context.Context) error

// SetupOpenTelemetry installs global trace and metric providers. With telemetry
// disabled the otel no-op providers stay in place and the shutdown is a no-op.
func SetupOpenTelemetry(ctx context.Context, log *slog.Logger, cfg OpenTelemetryConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVer),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	var shutdowns []shutdownFunc
	if cfg.tracesEnabled() {
		provider, err := newTracerProvider(ctx, cfg, res)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(provider)
		shutdowns = append(shutdowns, provider.Shutdown)
	}
	meterProvider, err := newMeterProvider(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)
		shutdowns = append(shutdowns, meterProvider.Shutdown)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("OpenTelemetry enabled",
		"service", cfg.ServiceName,
		"version", cfg.ServiceVer,
		"traces_enabled", cfg.tracesEnabled(),
		"sampling_ratio", cfg.SamplingRatio,
		"metrics_console", cfg.MetricsConsole,
		"metrics_otlp", cfg.OTLPEndpoint != "",
	)

	return func(shutdownCtx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](shutdownCtx))
		}
		return errors.Join(errs...)
	}, nil
}

func newTracerProvider(ctx context.Context, cfg OpenTelemetryConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
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
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(configuredSampler(cfg.SamplingRatio)),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

// newMeterProvider returns nil when no metric exporter is configured.
func newMeterProvider(ctx context.Context, cfg OpenTelemetryConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
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
		options = append(options, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricExportInterval))))
		readers++
	}
	if cfg.MetricsConsole {
		exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		options = append(options, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricExportInterval))))
		readers++
	}
	if readers == 0 {
		return nil, nil
	}
	return sdkmetric.NewMeterProvider(options...), nil
}

// NewOutboundClient returns the client used for provider calls. Spans are
// produced only once a tracer provider has been installed.
func NewOutboundClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "provider " + r.Method + " " + r.URL.Host
			}),
		),
	}
}

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
