package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TRACKAST_LLM_PROVIDER", "TRACKAST_LLM_MODEL", "TRACKAST_OLLAMA_URL",
		"TRACKAST_GRAMMAR_DIR", "TRACKAST_DEBUG", "OLLAMA_HOST", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	clearEnvOverrides(t)

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.LLM.Provider != ProviderOllama {
		t.Errorf("provider = %s, want ollama", cfg.LLM.Provider)
	}
	if cfg.Cache.Dir != filepath.Join(".trackast", "cache") {
		t.Errorf("cache dir = %s", cfg.Cache.Dir)
	}
}

func TestLoadFromPath(t *testing.T) {
	clearEnvOverrides(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `llm:
  provider: ollama
  model: codellama
  ollama_url: http://localhost:9999
cache:
  enabled: false
debug: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.LLM.Model != "codellama" {
		t.Errorf("model = %s, want codellama", cfg.LLM.Model)
	}
	if cfg.LLM.OllamaURL != "http://localhost:9999" {
		t.Errorf("ollama url = %s", cfg.LLM.OllamaURL)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled")
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	// Unset fields keep their defaults.
	if cfg.LLM.Timeout != 60 {
		t.Errorf("timeout = %d, want default 60", cfg.LLM.Timeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("TRACKAST_LLM_MODEL", "mistral")
	t.Setenv("TRACKAST_OLLAMA_URL", "http://ollama:11434")
	t.Setenv("TRACKAST_DEBUG", "true")
	t.Setenv("TRACKAST_GRAMMAR_DIR", "/opt/grammars")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.LLM.Model != "mistral" {
		t.Errorf("model = %s, want mistral", cfg.LLM.Model)
	}
	if cfg.LLM.OllamaURL != "http://ollama:11434" {
		t.Errorf("ollama url = %s", cfg.LLM.OllamaURL)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.GrammarDir != "/opt/grammars" {
		t.Errorf("grammar dir = %s", cfg.GrammarDir)
	}
}

func TestValidateErrors(t *testing.T) {
	clearEnvOverrides(t)

	cfg := DefaultConfig()
	cfg.LLM.Provider = ProviderAnthropic
	cfg.LLM.AnthropicAPIKey = ""
	cfg.LLM.Model = ""
	cfg.LLM.Timeout = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	for _, want := range []string{"anthropic_api_key", "model is required", "timeout"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %s", msg, want)
		}
	}
	if !strings.Contains(msg, "; ") {
		t.Errorf("errors should be semicolon-joined: %q", msg)
	}
}

func TestValidateUnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "watson"

	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("err = %v, want unknown provider", err)
	}
}

func TestWriteDefault(t *testing.T) {
	clearEnvOverrides(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# trackast configuration") {
		t.Error("default config should start with a comment header")
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reloading default config: %v", err)
	}
	if cfg.LLM.Provider != ProviderOllama {
		t.Errorf("provider = %s", cfg.LLM.Provider)
	}
}
