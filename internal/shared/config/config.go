package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration.
type Config struct {
	Env               string `koanf:"env"`
	Port              string `koanf:"port"`
	LogLevel          string `koanf:"log_level"`
	CORSAllowOrigin   string `koanf:"cors_allow_origin"`
	LLMProvider       string `koanf:"llm_provider"`
	APIKeySecretID    string `koanf:"llm_api_key_secret_id"`
	AnthropicAPIKey   string `koanf:"anthropic_api_key"`
	AnthropicBaseURL  string `koanf:"anthropic_base_url"`
	AnthropicVersion  string `koanf:"anthropic_version"`
	OpenAIAPIKey      string `koanf:"openai_api_key"`
	OpenAIBaseURL     string `koanf:"openai_base_url"`
	LLMModel          string `koanf:"llm_model"`
	LLMMaxTokens      int    `koanf:"llm_max_tokens"`
	LLMTimeoutSeconds int    `koanf:"llm_timeout_seconds"`
	AWSRegion         string `koanf:"aws_region"`
}

// Supported providers for the outbound text-generation call.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

const (
	defaultAnthropicModel = "claude-3-5-sonnet-latest"
	defaultOpenAIModel    = "gpt-4o-mini"
)

// Defaults returns the configuration used when nothing overrides a key.
func Defaults() Config {
	return Config{
		Env:              "dev",
		Port:             "8080",
		LogLevel:         "info",
		CORSAllowOrigin:  "*",
		LLMProvider:      ProviderAnthropic,
		AnthropicBaseURL: "https://api.anthropic.com",
		AnthropicVersion: "2023-06-01",
		OpenAIBaseURL:    "https://api.openai.com",
		LLMModel:         defaultAnthropicModel,
		LLMMaxTokens:     2000,
	}
}

var knownKeys = map[string]struct{}{
	"env":                         {},
	"port":                        {},
	"log_level":                   {},
	"cors_allow_origin":           {},
	"llm_provider":                {},
	"llm_api_key_secret_id":       {},
	"anthropic_api_key":           {},
	"anthropic_base_url":          {},
	"anthropic_version":           {},
	"openai_api_key":              {},
	"openai_base_url":             {},
	"llm_model":                   {},
	"llm_max_tokens":              {},
	"llm_timeout_seconds":         {},
	"aws_region":                  {},
}

// Load layers defaults, an optional YAML file named by CONFIG_FILE, local
// .env files and the process environment (highest precedence).
func Load() (Config, error) {
	loadEnvFiles(".env", "cmd/.env")

	k := koanf.New(".")

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Empty variables are skipped so they do not mask file values.
	envProvider := env.ProviderWithValue("", ".", func(s, v string) (string, interface{}) {
		key := strings.ToLower(s)
		if _, ok := knownKeys[key]; !ok || strings.TrimSpace(v) == "" {
			return "", nil
		}
		return key, v
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := Defaults()
	// The model default depends on the provider, so it is applied in normalize.
	cfg.LLMModel = ""
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return normalize(cfg), nil
}

func normalize(cfg Config) Config {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.LLMProvider = normalizeProvider(cfg.LLMProvider)
	cfg.AnthropicAPIKey = strings.TrimSpace(cfg.AnthropicAPIKey)
	cfg.OpenAIAPIKey = strings.TrimSpace(cfg.OpenAIAPIKey)
	cfg.AnthropicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.AnthropicBaseURL), "/")
	cfg.OpenAIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.OpenAIBaseURL), "/")
	if strings.TrimSpace(cfg.CORSAllowOrigin) == "" {
		cfg.CORSAllowOrigin = "*"
	}
	defaults := Defaults()
	if strings.TrimSpace(cfg.LLMModel) == "" {
		cfg.LLMModel = defaultAnthropicModel
		if cfg.LLMProvider == ProviderOpenAI {
			cfg.LLMModel = defaultOpenAIModel
		}
	}
	if cfg.LLMMaxTokens <= 0 {
		cfg.LLMMaxTokens = defaults.LLMMaxTokens
	}
	if cfg.LLMTimeoutSeconds < 0 {
		cfg.LLMTimeoutSeconds = 0
	}
	if cfg.AnthropicBaseURL == "" {
		cfg.AnthropicBaseURL = defaults.AnthropicBaseURL
	}
	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = defaults.OpenAIBaseURL
	}
	if strings.TrimSpace(cfg.AnthropicVersion) == "" {
		cfg.AnthropicVersion = defaults.AnthropicVersion
	}
	return cfg
}

// APIKey returns the credential of the selected provider.
func (c Config) APIKey() string {
	if c.LLMProvider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.AnthropicAPIKey
}

// SetAPIKey stores a resolved credential for the selected provider.
func (c *Config) SetAPIKey(key string) {
	if c.LLMProvider == ProviderOpenAI {
		c.OpenAIAPIKey = key
		return
	}
	c.AnthropicAPIKey = key
}

// APIKeyName is the environment variable that supplies the provider credential.
func (c Config) APIKeyName() string {
	if c.LLMProvider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "ANTHROPIC_API_KEY"
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ProviderOpenAI:
		return ProviderOpenAI
	default:
		return ProviderAnthropic
	}
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
