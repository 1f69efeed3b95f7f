// Package config loads the rubric service configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/snow-ghost/rubric/core"
	"github.com/snow-ghost/rubric/pkg/cache"
	"github.com/snow-ghost/rubric/pkg/limiter"
	"github.com/snow-ghost/rubric/pkg/logging"
	"github.com/snow-ghost/rubric/pkg/providers"
	"github.com/snow-ghost/rubric/pkg/tracing"
	"gopkg.in/yaml.v3"
)

// Grading strategies
const (
	StrategyPerCriterion  = "per_criterion"
	StrategyOneShot       = "one_shot"
	StrategyRubricAsJudge = "rubric_as_judge"
)

// Config is the top-level configuration
type Config struct {
	Judge   providers.Config `yaml:"judge"`
	Grader  GraderConfig     `yaml:"grader"`
	Cache   CacheConfig      `yaml:"cache"`
	Limits  LimitsConfig     `yaml:"limits"`
	Logging logging.Config   `yaml:"logging"`
	Tracing TracingConfig    `yaml:"tracing"`
	Server  ServerConfig     `yaml:"server"`
	History HistoryConfig    `yaml:"history"`
}

// GraderConfig selects and tunes the grading strategy
type GraderConfig struct {
	Strategy       string  `yaml:"strategy" validate:"oneof=per_criterion one_shot rubric_as_judge"`
	MaxConcurrency int     `yaml:"max_concurrency" validate:"gte=0"`
	ScaleMax       float64 `yaml:"scale_max" validate:"gt=0"`
	// OutOfRange is "clamp" or "reject" for holistic scores above ScaleMax
	OutOfRange string `yaml:"out_of_range" validate:"oneof=clamp reject"`
	// Tokenizer is "words", "chars" or a tiktoken encoding such as cl100k_base
	Tokenizer     string              `yaml:"tokenizer"`
	LengthPenalty *core.LengthPenalty `yaml:"length_penalty"`
}

// CacheConfig controls the judge response cache
type CacheConfig struct {
	Enabled      bool `yaml:"enabled"`
	cache.Config `yaml:",inline"`
}

// LimitsConfig protects the judge backend
type LimitsConfig struct {
	RequestsPerMinute float64                      `yaml:"requests_per_minute" validate:"gte=0"`
	Burst             int                          `yaml:"burst" validate:"gte=0"`
	Retry             limiter.RetryConfig          `yaml:"retry"`
	Breaker           limiter.CircuitBreakerConfig `yaml:"breaker"`
}

// TracingConfig enables span export to Jaeger
type TracingConfig struct {
	Enabled        bool `yaml:"enabled"`
	tracing.Config `yaml:",inline"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

// HistoryConfig points at the SQLite report store; an empty path disables it
type HistoryConfig struct {
	Path string `yaml:"path"`
}

var validate = validator.New()

// Default returns a configuration that grades with per-criterion calls to
// gpt-4o-mini
func Default() *Config {
	return &Config{
		Judge: providers.Config{
			Provider:  providers.ProviderOpenAI,
			Model:     "gpt-4o-mini",
			MaxTokens: 1024,
			Timeout:   60 * time.Second,
			JSONMode:  true,
		},
		Grader: GraderConfig{
			Strategy:   StrategyPerCriterion,
			ScaleMax:   100,
			OutOfRange: "clamp",
			Tokenizer:  "words",
		},
		Cache: CacheConfig{Enabled: true, Config: *cache.DefaultConfig()},
		Limits: LimitsConfig{
			RequestsPerMinute: 600,
			Burst:             10,
			Retry:             *limiter.DefaultRetryConfig(),
			Breaker:           *limiter.DefaultCircuitBreakerConfig(),
		},
		Logging: logging.DefaultConfig(),
		Tracing: TracingConfig{
			Config: tracing.Config{
				ServiceName:    "rubric",
				ServiceVersion: "dev",
				JaegerEndpoint: "http://localhost:14268/api/traces",
				Environment:    "development",
			},
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// An empty path falls back to RUBRIC_CONFIG, then to defaults only.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("RUBRIC_CONFIG")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with RUBRIC_* variables
func (c *Config) applyEnv() {
	c.Judge.Provider = getEnv("RUBRIC_PROVIDER", c.Judge.Provider)
	c.Judge.Model = getEnv("RUBRIC_MODEL", c.Judge.Model)
	c.Judge.BaseURL = getEnv("RUBRIC_BASE_URL", c.Judge.BaseURL)
	c.Judge.Timeout = getEnvDuration("RUBRIC_JUDGE_TIMEOUT", c.Judge.Timeout)
	c.Grader.Strategy = getEnv("RUBRIC_STRATEGY", c.Grader.Strategy)
	c.Grader.MaxConcurrency = getEnvInt("RUBRIC_MAX_CONCURRENCY", c.Grader.MaxConcurrency)
	c.Logging.Level = getEnv("RUBRIC_LOG_LEVEL", c.Logging.Level)
	c.Server.Addr = getEnv("RUBRIC_ADDR", c.Server.Addr)
	if origins := parseCommaSeparated(os.Getenv("RUBRIC_CORS_ORIGINS")); len(origins) > 0 {
		c.Server.CORSOrigins = origins
	}
	c.History.Path = getEnv("RUBRIC_HISTORY_PATH", c.History.Path)
}

// Validate checks field ranges and cross-field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	supported := false
	for _, p := range providers.SupportedProviders() {
		if p == c.Judge.Provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("invalid config: unsupported provider %q", c.Judge.Provider)
	}

	if c.Grader.LengthPenalty != nil {
		if err := c.Grader.LengthPenalty.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseCommaSeparated parses a comma-separated string into a slice
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
