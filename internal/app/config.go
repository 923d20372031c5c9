package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultOpenAIModel    = "gpt-4o"
)

// Config is the process-wide configuration stored as YAML in the user config
// dir. API keys from the environment always win over stored ones.
type Config struct {
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	DefaultProvider string `yaml:"default_provider"`
	DefaultModel    string `yaml:"default_model"`
	SessionsDir     string `yaml:"sessions_dir"`
}

func DefaultConfig() Config {
	return Config{
		DefaultProvider: ProviderAnthropic,
		SessionsDir:     DefaultSessionsDir(),
	}
}

func DefaultSessionsDir() string {
	if base, err := os.UserHomeDir(); err == nil && base != "" {
		return filepath.Join(base, ".makeaplan", "sessions")
	}
	return filepath.Join(os.TempDir(), "makeaplan", "sessions")
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "makeaplan", "config.yml")
}

// DefaultLogPath is where the CLI's JSON log lines go.
func DefaultLogPath() string {
	if base, err := os.UserHomeDir(); err == nil && base != "" {
		return filepath.Join(base, ".makeaplan", "makeaplan.log")
	}
	return ""
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = ProviderAnthropic
	}
	if cfg.SessionsDir == "" {
		cfg.SessionsDir = DefaultSessionsDir()
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// APIKey resolves the key for a provider: environment variable first, then
// the stored config. An empty result means no key is available.
func (c Config) APIKey(provider string) string {
	switch provider {
	case ProviderAnthropic:
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			return key
		}
		return c.AnthropicAPIKey
	case ProviderOpenAI:
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			return key
		}
		return c.OpenAIAPIKey
	default:
		return ""
	}
}

// KeyEnvVar names the environment variable consulted for a provider's key.
func KeyEnvVar(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// DefaultModelFor returns the model used when neither the session nor the
// config names one.
func DefaultModelFor(provider string) string {
	switch provider {
	case ProviderAnthropic:
		if m := os.Getenv("ANTHROPIC_MODEL"); m != "" {
			return m
		}
		return defaultAnthropicModel
	case ProviderOpenAI:
		if m := os.Getenv("OPENAI_MODEL"); m != "" {
			return m
		}
		return defaultOpenAIModel
	default:
		return ""
	}
}

// ValidateProvider checks a provider name from config or user input.
func ValidateProvider(provider string) error {
	switch provider {
	case ProviderAnthropic, ProviderOpenAI:
		return nil
	default:
		return &ValidationError{Msg: fmt.Sprintf("unknown provider %q (use %s or %s)", provider, ProviderAnthropic, ProviderOpenAI)}
	}
}
