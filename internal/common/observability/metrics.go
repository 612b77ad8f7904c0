package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability bundles the meter and tracer used by the pipeline. A zero
// value is usable and records nothing.
type Observability struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	questionCount  otelmetric.Int64Counter
	stageDuration  otelmetric.Float64Histogram
}

// The prometheus exporter registers with the default registry, so the
// meter provider is created once per process.
var (
	meterOnce     sync.Once
	meterProvider *metric.MeterProvider
	meterErr      error
)

func sharedMeterProvider() (*metric.MeterProvider, error) {
	meterOnce.Do(func() {
		exporter, err := prometheus.New()
		if err != nil {
			meterErr = err
			return
		}
		meterProvider = metric.NewMeterProvider(metric.WithReader(exporter))
		otel.SetMeterProvider(meterProvider)
	})
	return meterProvider, meterErr
}

// New builds the tracer and meter. Extra tracer provider options, such as
// a span processor, are applied after the always-on sampler.
func New(serviceName string, opts ...sdktrace.TracerProviderOption) (*Observability, error) {
	opts = append([]sdktrace.TracerProviderOption{sdktrace.WithSampler(sdktrace.AlwaysSample())}, opts...)
	tracerProvider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tracerProvider)

	o := &Observability{
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}

	provider, err := sharedMeterProvider()
	if err != nil {
		return o, err
	}
	meter := provider.Meter(serviceName)

	o.questionCount, _ = meter.Int64Counter(
		"questions.processed",
		otelmetric.WithDescription("Number of questions processed"),
	)
	o.stageDuration, _ = meter.Float64Histogram(
		"pipeline.stage.duration",
		otelmetric.WithDescription("Pipeline stage duration"),
		otelmetric.WithUnit("ms"),
	)
	return o, nil
}

// StartSpan opens a span named after a pipeline stage.
func (o *Observability) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return o.tracer.Start(ctx, name)
}

// EndSpan closes span, marking it failed when err is non-nil.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (o *Observability) RecordQuestion(ctx context.Context, outcome string) {
	if o == nil || o.questionCount == nil {
		return
	}
	o.questionCount.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) RecordStageDuration(ctx context.Context, stage string, duration time.Duration) {
	if o == nil || o.stageDuration == nil {
		return
	}
	o.stageDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("stage", stage),
	))
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if provider, _ := sharedMeterProvider(); provider != nil {
		_ = provider.ForceFlush(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
