// Package autograder runs LLM-judged rubric grading. A strategy collects raw
// judge results for a submission (Judge), reduces them to a report
// (Aggregate), and Run applies the optional length penalty on top.
package autograder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/snow-ghost/rubric/core"
	"github.com/snow-ghost/rubric/pkg/logging"
	"github.com/snow-ghost/rubric/pkg/metrics"
	"github.com/snow-ghost/rubric/pkg/tracing"
)

// Workflow is the two-phase grading contract every strategy implements
type Workflow[R any] interface {
	// Name labels logs, metrics and spans
	Name() string
	Judge(ctx context.Context, input core.GradeInput, criteria []core.Criterion, query string) (R, error)
	Aggregate(ctx context.Context, results R) (core.EvaluationReport, error)
}

// Grader grades text against a rubric. query is the prompt that produced the
// text and may be empty.
type Grader interface {
	Grade(ctx context.Context, text string, criteria []core.Criterion, query string) (core.EvaluationReport, error)
}

// Base carries the collaborators shared by all strategies
type Base struct {
	generator      core.Generator
	penalty        *core.LengthPenalty
	logger         *logging.Logger
	metrics        *metrics.PrometheusMetrics
	tracer         *tracing.Tracer
	maxConcurrency int
}

// Option configures a Base
type Option func(*Base)

// WithLengthPenalty subtracts a length penalty from every final score
func WithLengthPenalty(p core.LengthPenalty) Option {
	return func(b *Base) {
		b.penalty = &p
	}
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(b *Base) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics records grading metrics
func WithMetrics(m *metrics.PrometheusMetrics) Option {
	return func(b *Base) {
		b.metrics = m
	}
}

// WithTracer wraps grading and judge calls in spans
func WithTracer(t *tracing.Tracer) Option {
	return func(b *Base) {
		if t != nil {
			b.tracer = t
		}
	}
}

// WithMaxConcurrency bounds concurrent judge calls; n <= 0 means unlimited
func WithMaxConcurrency(n int) Option {
	return func(b *Base) {
		b.maxConcurrency = n
	}
}

// NewBase builds a Base. A nil generator is accepted here and reported by Run.
func NewBase(gen core.Generator, opts ...Option) *Base {
	b := &Base{
		generator: gen,
		logger:    logging.NewNop(),
		tracer:    tracing.NewNoopTracer(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Generate invokes the injected generator
func (b *Base) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if b.generator == nil {
		return "", core.ErrMissingGenerator
	}
	return b.generator.Generate(ctx, systemPrompt, userPrompt)
}

// LengthPenalty returns the configured penalty, if any
func (b *Base) LengthPenalty() (core.LengthPenalty, bool) {
	if b.penalty == nil {
		return core.LengthPenalty{}, false
	}
	return *b.penalty, true
}

// WithRequestID makes Run use id instead of generating one
func WithRequestID(ctx context.Context, id string) context.Context {
	return logging.ContextWithRequestID(ctx, id)
}

// RequestID returns the id of the grading call in ctx
func RequestID(ctx context.Context) string {
	return logging.RequestIDFromContext(ctx)
}

// call performs one judge call with span, log and metric bookkeeping
func (b *Base) call(ctx context.Context, strategy string, index int, systemPrompt, userPrompt string) (string, error) {
	ctx, span := b.tracer.StartJudgeSpan(ctx, strategy, index)
	defer span.End()

	start := time.Now()
	out, err := b.Generate(ctx, systemPrompt, userPrompt)
	duration := time.Since(start)

	b.logger.LogJudgeCall(ctx, strategy, index, duration, err)
	status := "success"
	if err != nil {
		status = "error"
		tracing.RecordSpanError(span, err)
	}
	if b.metrics != nil {
		b.metrics.RecordJudgeCall(strategy, status, duration)
	}
	return out, err
}

// parseFailure records a judge response that fell back to the conservative default
func (b *Base) parseFailure(ctx context.Context, strategy string, index int, requirement string, err error) {
	b.logger.LogParseFailure(ctx, strategy, index, requirement, err)
	if b.metrics != nil {
		b.metrics.RecordParseFailures(strategy, 1)
	}
}

// Run grades text with w: Judge, Aggregate, then the length penalty.
// It fails with core.ErrMissingGenerator before any judging when b has no
// generator.
func Run[R any](ctx context.Context, b *Base, w Workflow[R], text string, criteria []core.Criterion, query string) (core.EvaluationReport, error) {
	if b == nil || b.generator == nil {
		return core.EvaluationReport{}, core.ErrMissingGenerator
	}
	if b.penalty != nil {
		if err := b.penalty.Validate(); err != nil {
			return core.EvaluationReport{}, err
		}
	}
	for i, c := range criteria {
		if err := c.Validate(); err != nil {
			return core.EvaluationReport{}, fmt.Errorf("criterion %d: %w", i+1, err)
		}
	}

	strategy := w.Name()
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = WithRequestID(ctx, requestID)
	}
	ctx, span := b.tracer.StartGradeSpan(ctx, strategy, requestID, len(criteria))
	defer span.End()

	start := time.Now()
	fail := func(err error) (core.EvaluationReport, error) {
		tracing.RecordSpanError(span, err)
		b.logger.WithRequestID(requestID).Error("Grading failed", "strategy", strategy, "error", err.Error())
		if b.metrics != nil {
			b.metrics.RecordGrade(strategy, "error", time.Since(start))
		}
		return core.EvaluationReport{}, err
	}

	input := core.ParseGradeInput(text)

	results, err := w.Judge(ctx, input, criteria, query)
	if err != nil {
		return fail(err)
	}

	report, err := w.Aggregate(ctx, results)
	if err != nil {
		return fail(err)
	}

	var penalty float64
	if b.penalty != nil {
		penalty = core.ComputeLengthPenalty(input, *b.penalty)
		report = core.ApplyLengthPenalty(report, penalty)
	}

	duration := time.Since(start)
	failures := core.CountParseFailures(report.Report)
	b.logger.LogGrade(ctx, strategy, len(criteria), report.Score, report.RawScore, penalty, failures, duration)
	tracing.RecordSpanScore(span, report.Score, report.RawScore, penalty, failures)
	if b.metrics != nil {
		b.metrics.RecordGrade(strategy, "success", duration)
		b.metrics.RecordScore(strategy, report.Score, penalty)
	}

	return report, nil
}
