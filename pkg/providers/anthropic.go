package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/snow-ghost/rubric/core"
	"github.com/snow-ghost/rubric/pkg/limiter"
)

const anthropicVersion = "2023-06-01"

// AnthropicGenerator calls the Anthropic Messages API
type AnthropicGenerator struct {
	client  *http.Client
	baseURL string
	apiKey  string
	config  Config
}

var _ core.Generator = (*AnthropicGenerator)(nil)

// AnthropicMessage represents a message in Anthropic format
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnthropicRequest represents the request format for Anthropic API
type AnthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []AnthropicMessage `json:"messages"`
	Temperature float32            `json:"temperature"`
}

// AnthropicResponse represents the response format from Anthropic API
type AnthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewAnthropicGenerator creates a generator for the Anthropic API
func NewAnthropicGenerator(cfg Config, apiKey string) *AnthropicGenerator {
	return &AnthropicGenerator{
		client:  &http.Client{Timeout: cfg.timeout()},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  apiKey,
		config:  cfg,
	}
}

// Generate sends the prompts as one Messages request and concatenates the text blocks
func (p *AnthropicGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody, err := json.Marshal(AnthropicRequest{
		Model:       p.config.Model,
		MaxTokens:   p.config.maxTokens(),
		System:      systemPrompt,
		Messages:    []AnthropicMessage{{Role: "user", Content: userPrompt}},
		Temperature: p.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("anthropic API request failed: %w",
			limiter.NewHTTPError(resp.StatusCode, http.StatusText(resp.StatusCode), string(body)).
				WithRetryAfter(resp.Header.Get("Retry-After")))
	}

	var anthropicResp AnthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&anthropicResp); err != nil {
		return "", fmt.Errorf("failed to decode anthropic response: %w", err)
	}

	var text strings.Builder
	for _, content := range anthropicResp.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}

	return text.String(), nil
}
