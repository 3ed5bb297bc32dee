package llm

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ppiankov/distill/internal/model"
)

// newBackend creates the adapter for a registered provider. The HTTP client
// is shared; per-call deadlines come from the request context.
func newBackend(info ProviderInfo, cfg ProviderConfig, httpClient *http.Client, timeout time.Duration) Backend {
	switch info.ID {
	case OpenAI:
		return NewOpenAIBackend(cfg.Credential, cfg.BaseURL, httpClient, timeout)
	case OpenRouter:
		return NewOpenRouterBackend(cfg.Credential, cfg.BaseURL, httpClient, timeout)
	case Anthropic:
		return NewAnthropicBackend(cfg.Credential, cfg.BaseURL, httpClient, timeout)
	case Google:
		return NewGoogleBackend(cfg.Credential, cfg.BaseURL, httpClient, timeout)
	case Ollama:
		// The credential is the host; BaseURL wins when both are set
		host := cfg.Credential
		if cfg.BaseURL != "" {
			host = cfg.BaseURL
		}
		return NewOllamaBackend(host, httpClient, timeout)
	}
	panic(fmt.Sprintf("llm: no adapter for registered provider %q", info.ID))
}

// endpoint returns the address used to key rate limiting for a call
func endpoint(info ProviderInfo, cfg ProviderConfig) string {
	switch {
	case cfg.BaseURL != "":
		return cfg.BaseURL
	case info.Local:
		return NormalizeHost(cfg.Credential)
	}
	return info.Endpoint
}

// ConfigFromModel converts configured provider settings into a per-call
// config. It returns nil when no provider is selected.
func ConfigFromModel(settings model.ProviderSettings) (*ProviderConfig, error) {
	if settings.Name == "" {
		return nil, nil
	}
	id, err := ParseProvider(settings.Name)
	if err != nil {
		return nil, err
	}
	return &ProviderConfig{
		Provider:   id,
		Credential: settings.Credential(string(id)),
		Model:      settings.Model,
		Timeout:    settings.Timeout,
	}, nil
}
