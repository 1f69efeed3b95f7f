// Package observability bundles the logger, Prometheus registry and tracer
// a rubric process shares between its graders and its HTTP surface.
package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/snow-ghost/rubric/pkg/logging"
	"github.com/snow-ghost/rubric/pkg/metrics"
	"github.com/snow-ghost/rubric/pkg/tracing"
)

// Manager manages all observability components
type Manager struct {
	registry *prometheus.Registry
	metrics  *metrics.PrometheusMetrics
	tracer   *tracing.Tracer
	logger   *logging.Logger
}

// Config holds observability configuration
type Config struct {
	Logging        logging.Config
	Tracing        tracing.Config
	TracingEnabled bool
	// ProcessMetrics adds Go runtime and process collectors to the registry
	ProcessMetrics bool
}

// NewManager creates a new observability manager with a private registry
func NewManager(config Config) (*Manager, error) {
	logger, err := logging.NewLogger(config.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	if config.ProcessMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	tracer := tracing.NewNoopTracer()
	if config.TracingEnabled {
		tracer, err = tracing.NewTracer(config.Tracing)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer: %w", err)
		}
	}

	return &Manager{
		registry: registry,
		metrics:  metrics.NewPrometheusMetrics(registry),
		tracer:   tracer,
		logger:   logger,
	}, nil
}

// NewNop returns a manager that discards logs and spans
func NewNop() *Manager {
	registry := prometheus.NewRegistry()
	return &Manager{
		registry: registry,
		metrics:  metrics.NewPrometheusMetrics(registry),
		tracer:   tracing.NewNoopTracer(),
		logger:   logging.NewNop(),
	}
}

// GetMetrics returns the metrics instance
func (m *Manager) GetMetrics() *metrics.PrometheusMetrics {
	return m.metrics
}

// GetTracer returns the tracer instance
func (m *Manager) GetTracer() *tracing.Tracer {
	return m.tracer
}

// GetLogger returns the logger instance
func (m *Manager) GetLogger() *logging.Logger {
	return m.logger
}

// Gatherer returns the registry backing /metrics
func (m *Manager) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Shutdown flushes spans and logs
func (m *Manager) Shutdown(ctx context.Context) error {
	var errs []error
	if err := m.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer: %w", err))
	}
	// zap returns EINVAL/ENOTTY syncing a terminal; not worth surfacing
	_ = m.logger.Sync()
	return errors.Join(errs...)
}
