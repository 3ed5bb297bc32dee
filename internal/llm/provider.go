package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ProviderID names a text-generation backend
type ProviderID string

const (
	OpenAI     ProviderID = "openai"
	Anthropic  ProviderID = "anthropic"
	Google     ProviderID = "google"
	OpenRouter ProviderID = "openrouter"
	Ollama     ProviderID = "ollama"
)

const (
	hostedTimeout = 30 * time.Second
	localTimeout  = 180 * time.Second
	temperature   = 0.3
)

// ProviderInfo is a row of the backend registry
type ProviderInfo struct {
	ID           ProviderID
	Name         string
	DefaultModel string
	Models       []string
	Endpoint     string
	Timeout      time.Duration
	Local        bool // Credential is a host URL rather than an API key
}

var registry = [...]ProviderInfo{
	{
		ID:           OpenAI,
		Name:         "OpenAI",
		DefaultModel: "gpt-3.5-turbo",
		Models:       []string{"gpt-3.5-turbo", "gpt-4", "gpt-4-turbo", "gpt-4o-mini"},
		Endpoint:     "https://api.openai.com/v1",
		Timeout:      hostedTimeout,
	},
	{
		ID:           Anthropic,
		Name:         "Anthropic Claude",
		DefaultModel: "claude-3-haiku-20240307",
		Models:       []string{"claude-3-haiku-20240307", "claude-3-sonnet-20240229", "claude-3-opus-20240229"},
		Endpoint:     "https://api.anthropic.com",
		Timeout:      hostedTimeout,
	},
	{
		ID:           Google,
		Name:         "Google Gemini",
		DefaultModel: "gemini-pro",
		Models:       []string{"gemini-pro", "gemini-1.5-flash", "gemini-1.5-pro"},
		Endpoint:     "https://generativelanguage.googleapis.com/",
		Timeout:      hostedTimeout,
	},
	{
		ID:           OpenRouter,
		Name:         "OpenRouter",
		DefaultModel: "openai/gpt-3.5-turbo",
		Models:       []string{"openai/gpt-3.5-turbo", "anthropic/claude-3-haiku", "anthropic/claude-3-sonnet", "google/gemini-pro"},
		Endpoint:     "https://openrouter.ai/api/v1",
		Timeout:      hostedTimeout,
	},
	{
		ID:           Ollama,
		Name:         "Ollama",
		DefaultModel: "llama3",
		Models:       []string{"llama3", "llama2", "mistral", "codellama", "phi", "gemma:2b", "gemma:7b", "mixtral", "orca-mini"},
		Endpoint:     "http://localhost:11434",
		Timeout:      localTimeout,
		Local:        true,
	},
}

// Lookup returns the registry entry for a provider
func Lookup(id ProviderID) (ProviderInfo, bool) {
	for _, info := range registry {
		if info.ID == id {
			info.Models = append([]string(nil), info.Models...)
			return info, true
		}
	}
	return ProviderInfo{}, false
}

// Providers returns every registry entry in display order
func Providers() []ProviderInfo {
	out := make([]ProviderInfo, 0, len(registry))
	for _, info := range registry {
		info.Models = append([]string(nil), info.Models...)
		out = append(out, info)
	}
	return out
}

// ParseProvider converts a provider name; "claude" and "gemini" are accepted aliases
func ParseProvider(name string) (ProviderID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai":
		return OpenAI, nil
	case "anthropic", "claude":
		return Anthropic, nil
	case "google", "gemini":
		return Google, nil
	case "openrouter":
		return OpenRouter, nil
	case "ollama":
		return Ollama, nil
	}
	return "", fmt.Errorf("%w: %q (supported: openai, anthropic, google, openrouter, ollama)", ErrUnknownProvider, name)
}

// ProviderConfig selects a backend for one call. It is only read.
type ProviderConfig struct {
	Provider   ProviderID
	Credential string // API key, or host URL for ollama
	Model      string
	Timeout    time.Duration
	BaseURL    string // Overrides the registry endpoint (tests, proxies, self-hosted gateways)
}

// HasCredential reports whether the config can reach its backend
func (c *ProviderConfig) HasCredential() bool {
	return c != nil && strings.TrimSpace(c.Credential) != ""
}

// model returns the configured model or the backend default
func (c ProviderConfig) model(info ProviderInfo) string {
	if c.Model != "" {
		return c.Model
	}
	return info.DefaultModel
}

// timeout returns the configured timeout or the backend default
func (c ProviderConfig) timeout(info ProviderInfo) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return info.Timeout
}

// Request is a single completion request sent to a backend
type Request struct {
	System    string // Instruction framing; folded into the prompt by backends without a system field
	Prompt    string
	Model     string
	MaxTokens int
}

// Backend is one text-generation provider. The set is closed: only the
// adapters in this package implement it.
type Backend interface {
	ID() ProviderID
	Complete(ctx context.Context, req Request) Outcome[string]
	backend()
}
