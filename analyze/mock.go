package analyze

import (
	"context"
	"strings"
	"time"
)

// MockClient is an in-memory LLMClient backing the "mock" provider and
// the test suite. It records every request and answers from a canned
// response table.
type MockClient struct {
	// Responses maps prompt prefixes to canned replies.
	Responses map[string]string

	// DefaultResponse answers any prompt with no matching prefix.
	DefaultResponse string

	// Latency delays each completion when set.
	Latency time.Duration

	// Err fails every call when set.
	Err error

	requests []MockRequest
	config   ClientConfig
}

// MockRequest is one recorded call.
type MockRequest struct {
	Type     string // "complete"
	Messages []Message
}

// NewMockClient creates a mock with a generic explanation as its
// default reply.
func NewMockClient(cfg ClientConfig) *MockClient {
	return &MockClient{
		Responses: make(map[string]string),
		DefaultResponse: `This is a mock explanation for testing.

**Purpose**: The function performs its intended role in the call graph.

**Callers**: Invoked by the listed callers as part of normal control flow.

**Callees**: Delegates to its callees for the underlying work.`,
		config: cfg,
	}
}

func (c *MockClient) Name() string { return "mock" }

func (c *MockClient) Ping(ctx context.Context) error { return c.Err }

func (c *MockClient) Models(ctx context.Context) ([]string, error) {
	return []string{"mock-model"}, nil
}

// Complete records the request and replies with the canned response
// whose prefix matches a message, or DefaultResponse.
func (c *MockClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	c.requests = append(c.requests, MockRequest{Type: "complete", Messages: req.Messages})

	if c.Err != nil {
		return nil, c.Err
	}
	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, ErrTimeout
		}
	}

	response := c.DefaultResponse
	for prefix, canned := range c.Responses {
		for _, msg := range req.Messages {
			if strings.HasPrefix(msg.Content, prefix) {
				response = canned
			}
		}
	}

	prompt := EstimateTokensForMessages(req.Messages)
	completion := EstimateTokens(response)
	return &CompletionResponse{
		Content:      response,
		Model:        "mock-model",
		FinishReason: "stop",
		Duration:     time.Since(start),
		Usage: TokenUsage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}, nil
}

// GetRequests returns every recorded request.
func (c *MockClient) GetRequests() []MockRequest {
	return c.requests
}

// RequestCount counts recorded requests of one type.
func (c *MockClient) RequestCount(requestType string) int {
	n := 0
	for _, req := range c.requests {
		if req.Type == requestType {
			n++
		}
	}
	return n
}
