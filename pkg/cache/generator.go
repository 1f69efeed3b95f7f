package cache

import (
	"context"
	"fmt"

	"github.com/snow-ghost/rubric/core"
	"github.com/snow-ghost/rubric/pkg/logging"
	"github.com/snow-ghost/rubric/pkg/metrics"
)

// Generator memoizes judge responses in front of another generator.
// Identical in-flight prompts share a single upstream call and only
// successful responses are stored.
type Generator struct {
	next      core.Generator
	namespace string
	cache     *ResponseCache
	dedup     *Deduplicator
	logger    *logging.Logger
	metrics   *metrics.PrometheusMetrics
}

var _ core.Generator = (*Generator)(nil)

// NewGenerator wraps next. namespace is mixed into every key, typically the
// judge model name. logger and m may be nil.
func NewGenerator(next core.Generator, namespace string, config *Config, logger *logging.Logger, m *metrics.PrometheusMetrics) (*Generator, error) {
	c, err := NewResponseCache(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Generator{
		next:      next,
		namespace: namespace,
		cache:     c,
		dedup:     NewDeduplicator(),
		logger:    logger,
		metrics:   m,
	}, nil
}

// Generate returns the cached response for the prompt pair or calls through
func (g *Generator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	key := KeyFor(g.namespace, systemPrompt, userPrompt)

	if value, ok := g.cache.Get(key); ok {
		g.logger.LogCacheOperation(ctx, "get", true)
		if g.metrics != nil {
			g.metrics.RecordCacheHit()
		}
		return value, nil
	}
	g.logger.LogCacheOperation(ctx, "get", false)
	if g.metrics != nil {
		g.metrics.RecordCacheMiss()
	}

	value, _, err := g.dedup.Do(ctx, key, func(ctx context.Context) (string, error) {
		value, err := g.next.Generate(ctx, systemPrompt, userPrompt)
		if err != nil {
			return "", err
		}
		g.cache.Set(key, value, 0)
		return value, nil
	})
	if err != nil {
		return "", err
	}

	return value, nil
}

// Stats returns cache statistics including deduplicated calls
func (g *Generator) Stats() Stats {
	stats := g.cache.Stats()
	stats.Deduplicated = g.dedup.Stats().Deduplicated
	return stats
}

// Close stops the cache sweeper
func (g *Generator) Close() {
	g.cache.Close()
}
