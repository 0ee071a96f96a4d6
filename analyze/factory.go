package analyze

import (
	"fmt"
	"time"

	"github.com/georgehulme/trackast/config"
)

// NewClient creates an LLMClient based on the configuration.
func NewClient(cfg *config.Config) (LLMClient, error) {
	timeout := time.Duration(cfg.LLM.Timeout) * time.Second
	if timeout == 0 {
		timeout = DefaultClientConfig().Timeout
	}

	clientCfg := ClientConfig{
		Model:       cfg.LLM.Model,
		Timeout:     timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Debug:       cfg.Debug,
	}

	switch cfg.LLM.Provider {
	case config.ProviderOllama:
		return NewOllamaClient(cfg.LLM.OllamaURL, clientCfg), nil

	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.LLM.AnthropicAPIKey, clientCfg)

	case "mock":
		return NewMockClient(clientCfg), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.LLM.Provider)
	}
}
