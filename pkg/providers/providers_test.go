package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/snow-ghost/rubric/llm/mock"
	"github.com/snow-ghost/rubric/pkg/limiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockOpenAIServer answers chat completions with content and records the request
func mockOpenAIServer(t *testing.T, content string, seen *map[string]interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"message":       map[string]interface{}{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIGenerator(t *testing.T) {
	var seen map[string]interface{}
	server := mockOpenAIServer(t, `{"criterion_status":"MET","explanation":"ok"}`, &seen)

	g, err := New(Config{Provider: ProviderVLLM, Model: "judge-model", BaseURL: server.URL, JSONMode: true})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), "You are a judge.", "<criterion>x</criterion>")
	require.NoError(t, err)
	assert.Equal(t, `{"criterion_status":"MET","explanation":"ok"}`, out)

	assert.Equal(t, "judge-model", seen["model"])
	messages := seen["messages"].([]interface{})
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])
	format := seen["response_format"].(map[string]interface{})
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIGenerator_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer server.Close()

	g, err := New(Config{Provider: ProviderOllama, Model: "llama3", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "", "hello")
	require.Error(t, err)

	var httpErr *limiter.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
}

func TestAnthropicGenerator(t *testing.T) {
	var req AnthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": `{"overall_score": `},
				{"type": "text", "text": `80}`},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	g, err := New(Config{Provider: ProviderAnthropic, Model: "claude", BaseURL: server.URL, APIKey: "test-key"})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, `{"overall_score": 80}`, out)
	assert.Equal(t, "system text", req.System)
	assert.Equal(t, defaultMaxTokens, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user text", req.Messages[0].Content)
}

func TestAnthropicGenerator_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("overloaded"))
	}))
	defer server.Close()

	g := NewAnthropicGenerator(Config{Model: "claude", BaseURL: server.URL}, "k")
	_, err := g.Generate(context.Background(), "", "x")

	var httpErr *limiter.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, "overloaded", httpErr.Body)
	assert.Equal(t, 7*time.Second, httpErr.RetryAfter)
}

func TestNew_Validation(t *testing.T) {
	t.Setenv("RUBRIC_TEST_MISSING_KEY", "")

	_, err := New(Config{Provider: ProviderOpenAI})
	assert.Error(t, err, "model is required")

	_, err = New(Config{Provider: ProviderOpenAI, Model: "gpt", APIKeyEnv: "RUBRIC_TEST_MISSING_KEY"})
	assert.Error(t, err, "missing API key")

	_, err = New(Config{Provider: "carrier-pigeon", Model: "m"})
	assert.Error(t, err)

	t.Setenv("RUBRIC_TEST_KEY", "secret")
	g, err := New(Config{Provider: ProviderOpenRouter, Model: "m", APIKeyEnv: "RUBRIC_TEST_KEY"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, g)

	g, err = New(Config{Provider: ProviderMock})
	require.NoError(t, err)
	assert.IsType(t, &mock.Judge{}, g)
}

func TestSupportedProviders(t *testing.T) {
	for _, name := range SupportedProviders() {
		if name == ProviderMock {
			continue
		}
		_, ok := defaultBaseURLs[name]
		assert.True(t, ok, name)
	}
}
