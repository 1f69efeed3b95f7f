package main

import (
	"context"
	"fmt"

	"github.com/snow-ghost/rubric/autograder"
	"github.com/snow-ghost/rubric/core"
	"github.com/snow-ghost/rubric/pkg/cache"
	"github.com/snow-ghost/rubric/pkg/config"
	"github.com/snow-ghost/rubric/pkg/history"
	"github.com/snow-ghost/rubric/pkg/limiter"
	"github.com/snow-ghost/rubric/pkg/logging"
	"github.com/snow-ghost/rubric/pkg/metrics"
	"github.com/snow-ghost/rubric/pkg/observability"
	"github.com/snow-ghost/rubric/pkg/providers"
	"github.com/snow-ghost/rubric/pkg/tokens"
	"github.com/snow-ghost/rubric/pkg/tracing"
)

// app holds the wired components shared by commands
type app struct {
	cfg     *config.Config
	obs     *observability.Manager
	logger  *logging.Logger
	metrics *metrics.PrometheusMetrics
	cache   *cache.Generator
	judge   core.Generator
	graders map[string]autograder.Grader
	history *history.Store
}

func loadConfig(opts *globalOpts) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.provider != "" {
		cfg.Judge.Provider = opts.provider
	}
	if opts.model != "" {
		cfg.Judge.Model = opts.model
	}
	if opts.strategy != "" {
		cfg.Grader.Strategy = opts.strategy
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp builds provider -> protection -> cache -> graders.
// withHistory opens the report store when a path is configured.
func newApp(ctx context.Context, cfg *config.Config, withHistory bool) (*app, error) {
	obs, err := observability.NewManager(observability.Config{
		Logging:        cfg.Logging,
		Tracing:        cfg.Tracing.Config,
		TracingEnabled: cfg.Tracing.Enabled,
		ProcessMetrics: true,
	})
	if err != nil {
		return nil, err
	}

	logger := obs.GetLogger()
	a := &app{
		cfg:     cfg,
		obs:     obs,
		logger:  logger,
		metrics: obs.GetMetrics(),
	}

	gen, err := providers.New(cfg.Judge)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	retry := cfg.Limits.Retry
	breaker := cfg.Limits.Breaker
	gen = limiter.NewProtectedGenerator(gen, limiter.Options{
		Name:              cfg.Judge.Provider,
		RequestsPerMinute: cfg.Limits.RequestsPerMinute,
		Burst:             cfg.Limits.Burst,
		Retry:             &retry,
		Breaker:           &breaker,
		Logger:            logger,
		Metrics:           a.metrics,
	})

	// cache hits never reach the limiter or the breaker
	if cfg.Cache.Enabled {
		a.cache, err = cache.NewGenerator(gen, cfg.Judge.Provider+"/"+cfg.Judge.Model, &cfg.Cache.Config, logger, a.metrics)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		gen = a.cache
	}
	a.judge = gen

	if a.graders, err = buildGraders(a.judge, cfg.Grader, logger, a.metrics, obs.GetTracer()); err != nil {
		a.Close(ctx)
		return nil, err
	}

	if withHistory && cfg.History.Path != "" {
		a.history, err = history.Open(ctx, cfg.History.Path)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
	}

	logger.Debug("Judge configured",
		"provider", cfg.Judge.Provider,
		"model", cfg.Judge.Model,
		"strategy", cfg.Grader.Strategy,
		"cache", cfg.Cache.Enabled,
	)
	return a, nil
}

// buildGraders creates one grader per strategy sharing judge and observability
func buildGraders(judge core.Generator, gc config.GraderConfig, logger *logging.Logger, m *metrics.PrometheusMetrics, tracer *tracing.Tracer) (map[string]autograder.Grader, error) {
	opts := []autograder.Option{
		autograder.WithLogger(logger),
		autograder.WithMetrics(m),
		autograder.WithTracer(tracer),
		autograder.WithMaxConcurrency(gc.MaxConcurrency),
	}

	if gc.LengthPenalty != nil {
		penalty := *gc.LengthPenalty
		if gc.Tokenizer != "" {
			count, err := tokens.NewCounter(gc.Tokenizer)
			if err != nil {
				return nil, fmt.Errorf("length penalty tokenizer: %w", err)
			}
			penalty.CountFn = count
		}
		opts = append(opts, autograder.WithLengthPenalty(penalty))
	}

	policy := autograder.Clamp
	if gc.OutOfRange == "reject" {
		policy = autograder.Reject
	}

	holistic := autograder.NewRubricAsJudgeGrader(judge, opts...).
		SetScaleMax(gc.ScaleMax).
		SetOutOfRangePolicy(policy)

	return map[string]autograder.Grader{
		config.StrategyPerCriterion:  autograder.NewPerCriterionGrader(judge, opts...),
		config.StrategyOneShot:       autograder.NewOneShotGrader(judge, opts...),
		config.StrategyRubricAsJudge: holistic,
	}, nil
}

// grader returns the grader for strategy, or the configured default
func (a *app) grader(strategy string) (autograder.Grader, error) {
	if strategy == "" {
		strategy = a.cfg.Grader.Strategy
	}
	g, ok := a.graders[strategy]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
	return g, nil
}

// Close releases resources and flushes telemetry
func (a *app) Close(ctx context.Context) {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("failed to close history", "error", err.Error())
		}
	}
	if err := a.obs.Shutdown(ctx); err != nil {
		a.logger.Warn("failed to shut down observability", "error", err.Error())
	}
}
