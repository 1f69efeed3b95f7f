package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer emits rubric.grade and rubric.judge spans.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

type Config struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	JaegerEndpoint string `yaml:"jaeger_endpoint"`
	Environment    string `yaml:"environment"`
	// SampleRatio is the fraction of root grading calls traced. Zero or
	// anything >= 1 traces every call.
	SampleRatio float64 `yaml:"sample_ratio"`
}

// NewTracer exports batches of spans to the Jaeger collector at
// config.JaegerEndpoint and installs itself as the global provider.
func NewTracer(config Config) (*Tracer, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(config.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}
	return build(config, sdktrace.WithBatcher(exporter))
}

// NewTracerWithExporter exports each span synchronously as it ends.
func NewTracerWithExporter(config Config, exporter sdktrace.SpanExporter) (*Tracer, error) {
	return build(config, sdktrace.WithSyncer(exporter))
}

func build(config Config, export sdktrace.TracerProviderOption) (*Tracer, error) {
	res, err := resource.New(context.Background(), resource.WithAttributes(
		semconv.ServiceNameKey.String(config.ServiceName),
		semconv.ServiceVersionKey.String(config.ServiceVersion),
		semconv.DeploymentEnvironmentKey.String(config.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(export,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(config.SampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{tracer: tp.Tracer(config.ServiceName), provider: tp}, nil
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func NewNoopTracer() *Tracer {
	return &Tracer{tracer: noop.NewTracerProvider().Tracer("rubric")}
}

// StartGradeSpan opens the root span of one grading call.
func (t *Tracer) StartGradeSpan(ctx context.Context, strategy, requestID string, criteria int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "rubric.grade", trace.WithAttributes(
		attribute.String("rubric.strategy", strategy),
		attribute.String("rubric.request_id", requestID),
		attribute.Int("rubric.criteria", criteria),
	))
}

// StartJudgeSpan opens a child span for one judge call. index is the
// criterion position, or -1 for whole-rubric calls.
func (t *Tracer) StartJudgeSpan(ctx context.Context, strategy string, index int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "rubric.judge", trace.WithAttributes(
		attribute.String("rubric.strategy", strategy),
		attribute.Int("rubric.criterion_index", index),
	))
}

func RecordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// RecordSpanScore attaches the final report numbers and marks the span ok.
func RecordSpanScore(span trace.Span, score, rawScore, penalty float64, parseFailures int) {
	span.SetAttributes(
		attribute.Float64("rubric.score", score),
		attribute.Float64("rubric.raw_score", rawScore),
		attribute.Float64("rubric.length_penalty", penalty),
		attribute.Int("rubric.parse_failures", parseFailures),
	)
	span.SetStatus(codes.Ok, "")
}

// Shutdown flushes pending spans. No-op for the noop tracer.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// TraceID returns the trace id of the span in ctx, or "" if ctx is not
// being sampled.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsSampled() || !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
