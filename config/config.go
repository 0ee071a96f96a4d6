// Package config handles configuration loading for trackast.
// Configuration is loaded from:
// 1. ~/.config/trackast/config.yaml (user-level)
// 2. .trackast/config.yaml (project-level override)
// 3. Environment variables (highest priority)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"
)

// Provider names an LLM backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
)

// LLMConfig configures the explain command's LLM provider.
type LLMConfig struct {
	Provider Provider `yaml:"provider"` // ollama or anthropic
	Model    string   `yaml:"model"`

	OllamaURL       string `yaml:"ollama_url"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"` // or ANTHROPIC_API_KEY

	Timeout        int     `yaml:"timeout"` // seconds
	MaxRetries     int     `yaml:"max_retries"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	RequestsPerMin int     `yaml:"requests_per_min"`
}

// CacheConfig configures explain response caching.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`      // default .trackast/cache
	TTLDays int    `yaml:"ttl_days"` // 0 keeps entries forever
}

// Config is the top-level configuration.
type Config struct {
	LLM   LLMConfig   `yaml:"llm"`
	Cache CacheConfig `yaml:"cache"`

	// GrammarDir points at the tree-sitter shared libraries when they
	// live outside the default search paths.
	GrammarDir string `yaml:"grammar_dir"`

	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the configuration used when nothing else is
// set: local Ollama, caching on, no expiry.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       ProviderOllama,
			Model:          "llama3",
			OllamaURL:      "http://localhost:11434",
			Timeout:        60,
			MaxRetries:     3,
			Temperature:    0.1,
			MaxTokens:      2048,
			RequestsPerMin: 60,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     filepath.Join(".trackast", "cache"),
		},
	}
}

// Load merges the user config, the project config, and environment
// overrides onto the defaults, in that order.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if userPath, err := userConfigPath(); err == nil {
		if err := mergeFile(cfg, userPath); err != nil {
			return nil, err
		}
	}
	if err := mergeFile(cfg, filepath.Join(".trackast", "config.yaml")); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath reads one specific config file onto the defaults.
// Unlike Load, a missing file is an error.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// mergeFile overlays one YAML file onto cfg. Missing files are fine;
// unparsable ones are not.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Validate collects every problem with the configuration into one
// semicolon-joined error.
func (c *Config) Validate() error {
	var problems []string

	switch c.LLM.Provider {
	case ProviderOllama:
		if c.LLM.OllamaURL == "" {
			problems = append(problems, "ollama_url required for ollama provider")
		}
	case ProviderAnthropic:
		if c.LLM.AnthropicAPIKey == "" {
			problems = append(problems, "anthropic_api_key required for anthropic provider (or set ANTHROPIC_API_KEY env var)")
		}
	case "":
		// Falls back to the default provider.
	default:
		problems = append(problems, fmt.Sprintf("unknown provider: %s", c.LLM.Provider))
	}

	if c.LLM.Model == "" {
		problems = append(problems, "model is required")
	}
	if c.LLM.Timeout < 0 {
		problems = append(problems, "timeout must be non-negative")
	}
	if c.LLM.MaxRetries < 0 {
		problems = append(problems, "max_retries must be non-negative")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// DefaultPath returns the user-level config path, honoring
// XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	return userConfigPath()
}

func userConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "trackast", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "trackast", "config.yaml"), nil
}

// applyEnvOverrides lets environment variables trump file settings.
// TRACKAST_OLLAMA_URL wins over the conventional OLLAMA_HOST when both
// are set.
func applyEnvOverrides(cfg *Config) {
	set := func(key string, apply func(string)) {
		if v := os.Getenv(key); v != "" {
			apply(v)
		}
	}
	set("TRACKAST_LLM_PROVIDER", func(v string) { cfg.LLM.Provider = Provider(strings.ToLower(v)) })
	set("TRACKAST_LLM_MODEL", func(v string) { cfg.LLM.Model = v })
	set("OLLAMA_HOST", func(v string) { cfg.LLM.OllamaURL = v })
	set("TRACKAST_OLLAMA_URL", func(v string) { cfg.LLM.OllamaURL = v })
	set("ANTHROPIC_API_KEY", func(v string) { cfg.LLM.AnthropicAPIKey = v })
	set("TRACKAST_GRAMMAR_DIR", func(v string) { cfg.GrammarDir = v })
	set("TRACKAST_DEBUG", func(v string) {
		if v == "1" || strings.ToLower(v) == "true" {
			cfg.Debug = true
		}
	})
}

// WriteDefault writes the default configuration to path, creating
// parent directories as needed.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	content := "# trackast configuration\n# Settings for call-graph analysis and the explain command.\n\n" + string(data)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
