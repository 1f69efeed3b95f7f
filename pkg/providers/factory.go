package providers

import (
	"fmt"

	"github.com/snow-ghost/rubric/core"
	"github.com/snow-ghost/rubric/llm/mock"
)

// Supported provider names
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderVLLM       = "vllm"
	ProviderLMStudio   = "lmstudio"
	ProviderOllama     = "ollama"
	// ProviderMock is an offline keyword judge for demos and calibration dry runs
	ProviderMock = "mock"
)

var defaultBaseURLs = map[string]string{
	ProviderOpenAI:     "https://api.openai.com/v1",
	ProviderAnthropic:  "https://api.anthropic.com",
	ProviderOpenRouter: "https://openrouter.ai/api/v1",
	ProviderVLLM:       "http://localhost:8000/v1",
	ProviderLMStudio:   "http://localhost:1234/v1",
	ProviderOllama:     "http://localhost:11434/v1",
}

var defaultKeyEnvs = map[string]string{
	ProviderOpenAI:     "OPENAI_API_KEY",
	ProviderAnthropic:  "ANTHROPIC_API_KEY",
	ProviderOpenRouter: "OPENROUTER_API_KEY",
}

// New creates the judge generator described by cfg
func New(cfg Config) (core.Generator, error) {
	if cfg.Provider == ProviderMock {
		return mock.NewJudge(nil), nil
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("provider %q: model is required", cfg.Provider)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURLs[cfg.Provider]
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = defaultKeyEnvs[cfg.Provider]
	}

	switch cfg.Provider {
	case ProviderOpenAI, ProviderOpenRouter:
		apiKey, err := cfg.resolveAPIKey(true)
		if err != nil {
			return nil, err
		}
		return NewOpenAIGenerator(cfg, apiKey), nil
	case ProviderVLLM, ProviderLMStudio, ProviderOllama:
		apiKey, _ := cfg.resolveAPIKey(false)
		return NewOpenAIGenerator(cfg, apiKey), nil
	case ProviderAnthropic:
		apiKey, err := cfg.resolveAPIKey(true)
		if err != nil {
			return nil, err
		}
		return NewAnthropicGenerator(cfg, apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// SupportedProviders returns the provider names accepted by New
func SupportedProviders() []string {
	return []string{
		ProviderOpenAI,
		ProviderAnthropic,
		ProviderOpenRouter,
		ProviderVLLM,
		ProviderLMStudio,
		ProviderOllama,
		ProviderMock,
	}
}
