package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"doc-insight-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletion(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "The total is $100."}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "qwen-plus",
		Generation: config.LLMGenerationConfig{
			Temperature: 0.7,
			TopP:        0.8,
			MaxTokens:   2000,
		},
	})

	messages := []Message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: "What is the total?"},
	}
	answer, err := c.ChatCompletion(context.Background(), messages, nil)
	require.NoError(t, err)
	assert.Equal(t, "The total is $100.", answer)

	// 非流式调用，消息原样透传，生成参数取自配置
	assert.False(t, captured.Stream)
	assert.Equal(t, "qwen-plus", captured.Model)
	assert.Equal(t, messages, captured.Messages)
	require.NotNil(t, captured.Temperature)
	assert.InDelta(t, 0.7, *captured.Temperature, 1e-9)
	require.NotNil(t, captured.MaxTokens)
	assert.Equal(t, 2000, *captured.MaxTokens)
}

func TestChatCompletionExplicitParamsOverrideConfig(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{
		BaseURL:    srv.URL,
		Model:      "qwen-plus",
		Generation: config.LLMGenerationConfig{Temperature: 0.7},
	})

	temp := 0.1
	_, err := c.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "q"}}, &GenerationParams{Temperature: &temp})
	require.NoError(t, err)
	require.NotNil(t, captured.Temperature)
	assert.InDelta(t, 0.1, *captured.Temperature, 1e-9)
	assert.Nil(t, captured.MaxTokens)
}

func TestChatCompletionNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{BaseURL: srv.URL})
	_, err := c.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "q"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestChatCompletionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{BaseURL: srv.URL})
	_, err := c.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "q"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}
