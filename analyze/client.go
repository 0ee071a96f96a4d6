// Package analyze explains call-graph functions with an LLM. It defines
// the provider-agnostic client interface, the Ollama and Anthropic
// implementations, prompt construction from a function's source and its
// graph neighborhood, and a mock client for tests.
package analyze

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common errors returned by LLM clients.
var (
	ErrNoAPIKey       = errors.New("no API key configured")
	ErrRateLimited    = errors.New("rate limited by provider")
	ErrModelNotFound  = errors.New("model not found")
	ErrContextTooLong = errors.New("context exceeds model limit")
	ErrTimeout        = errors.New("request timed out")
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// CompletionRequest is a request for text completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
}

// CompletionResponse is the response from a completion request.
type CompletionResponse struct {
	Content      string        `json:"content"`
	Model        string        `json:"model"`
	Usage        TokenUsage    `json:"usage"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLMClient is the interface for LLM providers.
type LLMClient interface {
	// Complete generates a text completion.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Models returns available model names.
	Models(ctx context.Context) ([]string, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error

	// Name returns the provider name.
	Name() string
}

// ClientConfig holds common client configuration.
type ClientConfig struct {
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
	MaxTokens   int
	Debug       bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:     60 * time.Second,
		MaxRetries:  3,
		Temperature: 0.1,
		MaxTokens:   2048,
	}
}

// resolve applies client defaults to a request's unset fields.
func (cfg ClientConfig) resolve(req *CompletionRequest) (model string, temperature float64, maxTokens int) {
	model, temperature, maxTokens = req.Model, req.Temperature, req.MaxTokens
	if model == "" {
		model = cfg.Model
	}
	if temperature == 0 {
		temperature = cfg.Temperature
	}
	if maxTokens == 0 {
		maxTokens = cfg.MaxTokens
	}
	return
}

// postJSON sends one JSON POST, retrying transient failures (network
// errors, 429s, 5xx) with quadratic backoff. A fresh request is built
// per attempt because each send consumes the body reader.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload []byte, maxRetries int) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ErrTimeout
			case <-time.After(time.Duration(attempt*attempt) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrTimeout
			}
			lastErr = err
			continue
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			lastErr = ErrRateLimited
		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
		default:
			return resp, nil
		}
	}
	return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}
