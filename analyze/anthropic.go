package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const anthropicAPIVersion = "2023-06-01"

// AnthropicClient talks to Anthropic's messages API.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     ClientConfig
}

// NewAnthropicClient creates an Anthropic client. The API key is
// required; model and timeout fall back to defaults when unset.
func NewAnthropicClient(apiKey string, cfg ClientConfig) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &AnthropicClient{
		apiKey:     apiKey,
		baseURL:    "https://api.anthropic.com/v1",
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
	}, nil
}

func (c *AnthropicClient) Name() string { return "anthropic" }

// Ping sends a one-token completion. The API has no health endpoint.
func (c *AnthropicClient) Ping(ctx context.Context) error {
	_, err := c.Complete(ctx, &CompletionRequest{
		Messages:  []Message{{Role: "user", Content: "Hi"}},
		MaxTokens: 1,
	})
	return err
}

// Models returns known model names. There is no listing API.
func (c *AnthropicClient) Models(ctx context.Context) ([]string, error) {
	return []string{
		"claude-sonnet-4-20250514",
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
		"claude-3-opus-20240229",
		"claude-3-sonnet-20240229",
		"claude-3-haiku-20240307",
	}, nil
}

type anthropicRequest struct {
	Model         string             `json:"model"`
	MaxTokens     int                `json:"max_tokens"`
	Messages      []anthropicMessage `json:"messages"`
	System        string             `json:"system,omitempty"`
	Temperature   float64            `json:"temperature,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one messages-API request and collects the text blocks
// of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	model, temperature, maxTokens := c.config.resolve(req)

	// The messages API takes the system prompt as a top-level field,
	// not as a message.
	var system string
	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		messages = append(messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	payload, err := json.Marshal(anthropicRequest{
		Model:         model,
		MaxTokens:     maxTokens,
		Messages:      messages,
		System:        system,
		Temperature:   temperature,
		StopSequences: req.Stop,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicAPIVersion,
	}
	resp, err := postJSON(ctx, c.httpClient, c.baseURL+"/messages", headers, payload, c.config.MaxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, anthropicAPIError(resp)
	}

	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	var content strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return &CompletionResponse{
		Content:      content.String(),
		Model:        out.Model,
		FinishReason: out.StopReason,
		Duration:     time.Since(start),
		Usage: TokenUsage{
			PromptTokens:     out.Usage.InputTokens,
			CompletionTokens: out.Usage.OutputTokens,
			TotalTokens:      out.Usage.InputTokens + out.Usage.OutputTokens,
		},
	}, nil
}

// anthropicAPIError extracts the API's error message from a failed
// response, falling back to the raw body.
func anthropicAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var e anthropicErrorResponse
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return fmt.Errorf("anthropic: %s", e.Error.Message)
	}
	return fmt.Errorf("anthropic: status %d: %s", resp.StatusCode, body)
}
