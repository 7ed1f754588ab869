package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"MagicLists/config"
	"MagicLists/logger"
	"MagicLists/model"
)

// ProviderConfig describes one supported AI backend.
type ProviderConfig struct {
	BaseURL      string
	RequiresKey  bool
	DefaultModel string
	SignupURL    string
}

// Providers are the supported OpenAI-compatible backends.
var Providers = map[string]ProviderConfig{
	"openrouter": {
		BaseURL:      "https://openrouter.ai/api/v1/chat/completions",
		RequiresKey:  true,
		DefaultModel: "openai/gpt-3.5-turbo",
		SignupURL:    "https://openrouter.ai/",
	},
	"groq": {
		BaseURL:      "https://api.groq.com/openai/v1/chat/completions",
		RequiresKey:  true,
		DefaultModel: "mixtral-8x7b-32768",
		SignupURL:    "https://console.groq.com/",
	},
	"ollama": {
		BaseURL:      "http://localhost:11434/v1/chat/completions",
		RequiresKey:  false,
		DefaultModel: "llama3.2",
	},
}

const (
	defaultTimeout  = 30 * time.Second
	ollamaRetries   = 3
	ollamaBaseDelay = 10 * time.Second
)

// Provider sends chat completion requests to a configured AI backend.
type Provider struct {
	providerType string
	apiKey       string
	model        string
	baseURL      string
	httpClient   *http.Client

	// Ollama loads models lazily and can answer 500 while loading; these
	// control the transport-level retry for that case.
	retries    int
	retryDelay time.Duration
}

// NewProvider builds a provider from application config.
func NewProvider(cfg *config.Config) (*Provider, error) {
	providerType := cfg.AIProvider
	pc, ok := Providers[providerType]
	if !ok {
		available := make([]string, 0, len(Providers))
		for name := range Providers {
			available = append(available, name)
		}
		return nil, fmt.Errorf("unknown AI_PROVIDER: %s (options: %s)", providerType, strings.Join(available, ", "))
	}

	aiModel := cfg.AIModel
	if aiModel == "" {
		aiModel = pc.DefaultModel
	}
	baseURL := cfg.AIBaseURL
	if baseURL == "" {
		baseURL = pc.BaseURL
	}

	timeout := defaultTimeout
	retries := 0
	if providerType == "ollama" {
		timeout = cfg.OllamaTimeout
		retries = ollamaRetries
	}

	return &Provider{
		providerType: providerType,
		apiKey:       cfg.AIAPIKey,
		model:        aiModel,
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: timeout},
		retries:      retries,
		retryDelay:   ollamaBaseDelay,
	}, nil
}

// Configured reports whether the provider can be called at all: key-gated
// providers need a key, local ones are always callable.
func (p *Provider) Configured() bool {
	pc, ok := Providers[p.providerType]
	if !ok {
		return false
	}
	if pc.RequiresKey && p.apiKey == "" {
		return false
	}
	return true
}

// Generate sends a chat completion request and returns the raw text content.
func (p *Provider) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	reqBody := model.OpenAIChatRequest{
		Model: p.model,
		Messages: []model.OpenAIChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	logger.Info("Sending chat completion request",
		logger.String("provider", p.providerType),
		logger.String("model", p.model),
		logger.Int("maxTokens", maxTokens))

	delay := p.retryDelay
	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying chat completion request",
				logger.Int("attempt", attempt+1),
				logger.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay += ollamaBaseDelay
		}

		content, retryable, err := p.post(ctx, jsonBody)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			return "", err
		}
	}
	return "", lastErr
}

// post performs one request round trip. The second return reports whether
// the failure is worth retrying (Ollama model still loading, connection
// errors on a retrying provider).
func (p *Provider) post(ctx context.Context, jsonBody []byte) (content string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", p.retries > 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode == http.StatusInternalServerError && p.retries > 0 {
			var errResp model.OpenAIErrorResponse
			if json.Unmarshal(body, &errResp) == nil &&
				strings.Contains(strings.ToLower(errResp.Error.Message), "loading model") {
				return "", true, fmt.Errorf("model %s is still loading", p.model)
			}
		}
		return "", false, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp model.OpenAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", false, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", false, fmt.Errorf("no response choices returned")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), false, nil
}
