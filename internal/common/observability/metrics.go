package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Observability bundles the otel meter and tracer used by hooks and host
// adapters. A zero value is usable and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerShutdown func(context.Context) error
	tracer         trace.Tracer

	hookCounter  otelmetric.Int64Counter
	hookDuration otelmetric.Float64Histogram
}

// New sets up the prometheus-backed meter and, when otlpEndpoint is set, an
// OTLP trace exporter. Failures degrade to no-op instruments.
func New(serviceName, otlpEndpoint string, logger *zap.Logger) *Observability {
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Observability{}

	exporter, err := prometheus.New()
	if err != nil {
		logger.Warn("failed to create prometheus exporter", zap.Error(err))
	} else {
		provider := metric.NewMeterProvider(metric.WithReader(exporter))
		otel.SetMeterProvider(provider)
		o.meterProvider = provider

		meter := provider.Meter(serviceName)
		o.hookCounter, _ = meter.Int64Counter(
			"hooks.invocations",
			otelmetric.WithDescription("Number of after-calculation hook invocations"),
		)
		o.hookDuration, _ = meter.Float64Histogram(
			"hooks.duration",
			otelmetric.WithDescription("Hook processing duration"),
			otelmetric.WithUnit("ms"),
		)
	}

	shutdown, err := initTracer(context.Background(), serviceName, otlpEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}
	o.tracerShutdown = shutdown
	o.tracer = otel.Tracer(tracerName)

	return o
}

func (o *Observability) RecordHookInvocation(ctx context.Context, hook, outcome string) {
	if o == nil || o.hookCounter == nil {
		return
	}
	o.hookCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("hook", hook),
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) RecordHookDuration(ctx context.Context, hook string, duration time.Duration) {
	if o == nil || o.hookDuration == nil {
		return
	}
	o.hookDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("hook", hook),
	))
}

// StartSpan starts a span on the service tracer. The global no-op tracer is
// used when tracing was never configured.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	if o != nil && o.tracer != nil {
		tracer = o.tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerShutdown != nil {
		_ = o.tracerShutdown(ctx)
	}
}
