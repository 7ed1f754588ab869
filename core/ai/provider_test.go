package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"MagicLists/config"
	"MagicLists/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatResponse(content string) model.OpenAIChatResponse {
	var resp model.OpenAIChatResponse
	resp.Choices = make([]struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	}, 1)
	resp.Choices[0].Message.Role = "assistant"
	resp.Choices[0].Message.Content = content
	return resp
}

func TestNewProviderDefaults(t *testing.T) {
	p, err := NewProvider(&config.Config{AIProvider: "openrouter", AIAPIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, Providers["openrouter"].DefaultModel, p.model)
	assert.Equal(t, Providers["openrouter"].BaseURL, p.baseURL)
	assert.Equal(t, 0, p.retries)
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(&config.Config{AIProvider: "skynet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown AI_PROVIDER")
}

func TestConfigured(t *testing.T) {
	keyed, err := NewProvider(&config.Config{AIProvider: "groq"})
	require.NoError(t, err)
	assert.False(t, keyed.Configured(), "key-gated provider without a key")

	keyed.apiKey = "k"
	assert.True(t, keyed.Configured())

	local, err := NewProvider(&config.Config{AIProvider: "ollama"})
	require.NoError(t, err)
	assert.True(t, local.Configured(), "local provider needs no key")
}

func TestGenerate(t *testing.T) {
	var gotAuth string
	var gotReq model.OpenAIChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(chatResponse("  {\"track_ids\": [0]}  "))
	}))
	defer srv.Close()

	p, err := NewProvider(&config.Config{
		AIProvider: "openrouter",
		AIAPIKey:   "secret",
		AIModel:    "test-model",
		AIBaseURL:  srv.URL,
	})
	require.NoError(t, err)

	content, err := p.Generate(context.Background(), "system text", "user text", 500, 0.4)
	require.NoError(t, err)
	assert.Equal(t, `{"track_ids": [0]}`, content, "content arrives whitespace-trimmed")

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, 500, gotReq.MaxTokens)
	assert.Equal(t, 0.4, gotReq.Temperature)
}

func TestGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewProvider(&config.Config{AIProvider: "openrouter", AIAPIKey: "k", AIBaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "s", "u", 100, 0.7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.OpenAIChatResponse{})
	}))
	defer srv.Close()

	p, err := NewProvider(&config.Config{AIProvider: "openrouter", AIAPIKey: "k", AIBaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "s", "u", 100, 0.7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no response choices")
}

func TestGenerateOllamaRetriesWhileLoading(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "loading model, please wait"},
			})
			return
		}
		json.NewEncoder(w).Encode(chatResponse("ready"))
	}))
	defer srv.Close()

	p, err := NewProvider(&config.Config{AIProvider: "ollama", AIBaseURL: srv.URL})
	require.NoError(t, err)
	p.retryDelay = 0

	content, err := p.Generate(context.Background(), "s", "u", 100, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "ready", content)
	assert.Equal(t, 2, attempts)
}
