package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"github.com/snow-ghost/rubric/core"
	"github.com/snow-ghost/rubric/pkg/limiter"
)

// OpenAIGenerator calls an OpenAI-compatible chat completions API
// (OpenAI, OpenRouter, vLLM, LM Studio, Ollama)
type OpenAIGenerator struct {
	client *openai.Client
	config Config
}

var _ core.Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator creates a generator for an OpenAI-compatible endpoint
func NewOpenAIGenerator(cfg Config, apiKey string) *OpenAIGenerator {
	config := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = &http.Client{Timeout: cfg.timeout()}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		config: cfg,
	}
}

// Generate performs one chat completion and returns the assistant text
func (p *OpenAIGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	request := openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    messages,
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.maxTokens(),
	}
	if p.config.JSONMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	response, err := p.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", classifyOpenAIError(err))
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion returned no choices")
	}

	return response.Choices[0].Message.Content, nil
}

// classifyOpenAIError exposes the HTTP status of API failures as a
// limiter.HTTPError so the retry layer can classify them
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return fmt.Errorf("%w: %w", limiter.NewHTTPError(apiErr.HTTPStatusCode, apiErr.Message, ""), err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return fmt.Errorf("%w: %w", limiter.NewHTTPError(reqErr.HTTPStatusCode, http.StatusText(reqErr.HTTPStatusCode), string(reqErr.Body)), err)
	}
	return err
}
