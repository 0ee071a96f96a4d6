package analyze

import (
	"errors"
	"testing"

	"github.com/georgehulme/trackast/config"
)

func TestNewClientMock(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "mock"

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.Name() != "mock" {
		t.Errorf("Name = %q, want mock", client.Name())
	}
}

func TestNewClientOllama(t *testing.T) {
	cfg := config.DefaultConfig()

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.Name() != "ollama" {
		t.Errorf("Name = %q, want ollama", client.Name())
	}
}

func TestNewClientAnthropicRequiresKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = config.ProviderAnthropic
	cfg.LLM.AnthropicAPIKey = ""

	if _, err := NewClient(cfg); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "watson"

	if _, err := NewClient(cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
