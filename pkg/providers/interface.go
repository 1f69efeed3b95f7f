package providers

import (
	"fmt"
	"os"
	"time"
)

// Config describes the judge model a generator talks to
type Config struct {
	Provider    string        `json:"provider" yaml:"provider"`
	Model       string        `json:"model" yaml:"model"`
	BaseURL     string        `json:"base_url" yaml:"base_url"`
	APIKey      string        `json:"-" yaml:"-"`
	APIKeyEnv   string        `json:"api_key_env" yaml:"api_key_env"`
	Temperature float32       `json:"temperature" yaml:"temperature"`
	MaxTokens   int           `json:"max_tokens" yaml:"max_tokens"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	// JSONMode asks OpenAI-compatible backends for a JSON object response
	JSONMode bool `json:"json_mode" yaml:"json_mode"`
}

const (
	defaultMaxTokens = 1024
	defaultTimeout   = 60 * time.Second
)

// resolveAPIKey returns the explicit key or the one named by APIKeyEnv.
// Local backends accept an empty key.
func (c Config) resolveAPIKey(required bool) (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	if c.APIKeyEnv != "" {
		if key := os.Getenv(c.APIKeyEnv); key != "" {
			return key, nil
		}
	}
	if required {
		return "", fmt.Errorf("API key not found in environment variable %s", c.APIKeyEnv)
	}
	return "", nil
}

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return defaultMaxTokens
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}
