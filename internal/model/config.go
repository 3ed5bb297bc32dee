package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete distill configuration
type Config struct {
	Provider  ProviderSettings `yaml:"provider" mapstructure:"provider"`
	Summary   SummaryConfig    `yaml:"summary" mapstructure:"summary"`
	Learning  LearningConfig   `yaml:"learning" mapstructure:"learning"`
	RateLimit RateLimitConfig  `yaml:"rate_limit" mapstructure:"rate_limit"`
	HTTP      HTTPConfig       `yaml:"http" mapstructure:"http"`
	Database  DatabaseConfig   `yaml:"database" mapstructure:"database"`
	Server    ServerConfig     `yaml:"server" mapstructure:"server"`
	Log       LogConfig        `yaml:"log" mapstructure:"log"`
}

// ProviderSettings selects the text-generation backend and holds its credentials
type ProviderSettings struct {
	Name             string        `yaml:"name" mapstructure:"name" validate:"omitempty,oneof=openai anthropic claude google gemini openrouter ollama"`
	Model            string        `yaml:"model" mapstructure:"model"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	OpenAIAPIKey     string        `yaml:"openai_api_key,omitempty" mapstructure:"openai_api_key"`
	AnthropicAPIKey  string        `yaml:"anthropic_api_key,omitempty" mapstructure:"anthropic_api_key"`
	GoogleAPIKey     string        `yaml:"google_api_key,omitempty" mapstructure:"google_api_key"`
	OpenRouterAPIKey string        `yaml:"openrouter_api_key,omitempty" mapstructure:"openrouter_api_key"`
	OllamaHost       string        `yaml:"ollama_host" mapstructure:"ollama_host" validate:"omitempty,url"`
}

// Credential returns the credential for the named provider.
// For ollama this is the host URL.
func (p ProviderSettings) Credential(name string) string {
	switch name {
	case "openai":
		return p.OpenAIAPIKey
	case "anthropic":
		return p.AnthropicAPIKey
	case "google":
		return p.GoogleAPIKey
	case "openrouter":
		return p.OpenRouterAPIKey
	case "ollama":
		return p.OllamaHost
	}
	return ""
}

// SummaryConfig holds summarization defaults
type SummaryConfig struct {
	Level string `yaml:"level" mapstructure:"level" validate:"oneof=brief medium detailed"`
	UseAI bool   `yaml:"use_ai" mapstructure:"use_ai"`
}

// LearningConfig holds learning item generation defaults
type LearningConfig struct {
	MaxItems int `yaml:"max_items" mapstructure:"max_items" validate:"gte=1,lte=100"`
}

// RateLimitConfig bounds request rates per backend host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int     `yaml:"burst" mapstructure:"burst" validate:"gte=1"`
}

// HTTPConfig controls document fetching
type HTTPConfig struct {
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	MaxBytes   int64         `yaml:"max_bytes" mapstructure:"max_bytes" validate:"gt=0"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// DatabaseConfig points at the Postgres store; empty URL means in-memory
type DatabaseConfig struct {
	URL string `yaml:"url,omitempty" mapstructure:"url"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr" validate:"required"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=text json"`
	File   string `yaml:"file,omitempty" mapstructure:"file"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider: ProviderSettings{
			OllamaHost: "http://localhost:11434",
		},
		Summary: SummaryConfig{
			Level: string(LevelMedium),
			UseAI: false,
		},
		Learning: LearningConfig{
			MaxItems: 5,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2.0,
			Burst:             3,
		},
		HTTP: HTTPConfig{
			UserAgent: "Distill/0.1 (+https://github.com/ppiankov/distill)",
			Timeout:   30 * time.Second,
			MaxBytes:  5_000_000,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
