package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/distill/internal/cache"
)

const (
	summarySystemPrompt    = "You are a document summarization assistant. "
	structuredSystemPrompt = "You are a learning assistant that writes concise study material."
	structuredMaxTokens    = 1000
	warmTTL                = 5 * time.Minute
)

// Limiter throttles calls per endpoint host
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Gateway dispatches generation requests to the configured backend. It is
// safe for concurrent use.
type Gateway struct {
	httpClient *http.Client
	limiter    Limiter
	logger     *slog.Logger
	warm       cache.Cache
}

// Option configures a Gateway
type Option func(*Gateway)

// WithHTTPClient sets the client shared by all backends
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

// WithLimiter sets the per-host rate limiter
func WithLimiter(l Limiter) Option {
	return func(g *Gateway) { g.limiter = l }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithCache sets the memo used to remember warmed local models
func WithCache(c cache.Cache) Option {
	return func(g *Gateway) { g.warm = c }
}

// NewGateway creates a gateway
func NewGateway(opts ...Option) *Gateway {
	g := &Gateway{}
	for _, opt := range opts {
		opt(g)
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{}
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.warm == nil {
		g.warm = cache.NewMemory(warmTTL)
	}
	return g
}

// Generate produces free text for content following instruction
func (g *Gateway) Generate(ctx context.Context, content, instruction string, cfg *ProviderConfig, maxTokens int) Outcome[string] {
	if strings.TrimSpace(content) == "" {
		return Fail[string](NewFailure(KindEmptyContent, providerOf(cfg), "nothing to generate from"))
	}
	return g.complete(ctx, cfg, Request{
		System:    summarySystemPrompt + instruction,
		Prompt:    content,
		MaxTokens: maxTokens,
	})
}

// GenerateStructured asks for question/answer pairs and parses the response.
// A response without a single usable pair is an InvalidResponse failure.
func (g *Gateway) GenerateStructured(ctx context.Context, prompt string, cfg *ProviderConfig, maxItems int) Outcome[[]Pair] {
	out := g.complete(ctx, cfg, Request{
		System:    structuredSystemPrompt,
		Prompt:    prompt,
		MaxTokens: structuredMaxTokens,
	})
	if !out.OK() {
		return Fail[[]Pair](out.Failure())
	}

	pairs := ParsePairs(out.Value(), maxItems)
	if len(pairs) == 0 {
		return Fail[[]Pair](NewFailure(KindInvalidResponse, cfg.Provider, "response contained no question/answer pairs"))
	}
	return Success(pairs)
}

func (g *Gateway) complete(ctx context.Context, cfg *ProviderConfig, req Request) Outcome[string] {
	if cfg == nil {
		return Fail[string](NewFailure(KindNoCredential, "", "no provider configured").
			WithHint("set provider.name and a credential"))
	}

	info, ok := Lookup(cfg.Provider)
	if !ok {
		return Fail[string](NewFailure(KindUnknownProvider, cfg.Provider, "unknown provider").
			WithHint("supported: openai, anthropic, google, openrouter, ollama"))
	}

	if !cfg.HasCredential() {
		return Fail[string](NewFailure(KindNoCredential, info.ID, "no credential configured").
			WithHint(credentialHint(info)))
	}

	timeout := cfg.timeout(info)
	req.Model = cfg.model(info)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, endpoint(info, *cfg)); err != nil {
			if ctx.Err() == nil {
				// the next token would arrive after the deadline
				err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
			return Fail[string](transportFailure(info.ID, err, timeout))
		}
	}

	backend := newBackend(info, *cfg, g.httpClient, timeout)

	if local, ok := backend.(*OllamaBackend); ok {
		if f := g.warmUp(ctx, local, req.Model); f != nil {
			return Fail[string](f)
		}
	}

	g.logger.Debug("Generating", "provider", info.ID, "model", req.Model, "max_tokens", req.MaxTokens)
	start := time.Now()

	out := backend.Complete(ctx, req)
	if !out.OK() {
		f := out.Failure()
		g.logger.Warn("Generation failed", "provider", info.ID, "model", req.Model, "kind", f.Kind, "error", f.Message)
		return out
	}

	g.logger.Debug("Generation complete", "provider", info.ID, "model", req.Model, "duration", time.Since(start))
	return out
}

// warmUp loads a local model once per host and model while the memo entry lives
func (g *Gateway) warmUp(ctx context.Context, b *OllamaBackend, model string) *Failure {
	key := cache.Key("ollama-warm", b.BaseURL(), model)
	_, err := cache.Remember(g.warm, key, warmTTL, func() ([]byte, error) {
		g.logger.Info("Warming up local model", "host", b.BaseURL(), "model", model)
		if f := b.WarmUp(ctx, model); f != nil {
			return nil, f
		}
		return []byte(time.Now().Format(time.RFC3339)), nil
	})

	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return nil
}

func credentialHint(info ProviderInfo) string {
	if info.Local {
		return "set provider.ollama_host or OLLAMA_HOST"
	}
	return fmt.Sprintf("set provider.%s_api_key or %s_API_KEY", info.ID, strings.ToUpper(string(info.ID)))
}

func providerOf(cfg *ProviderConfig) ProviderID {
	if cfg == nil {
		return ""
	}
	return cfg.Provider
}
