package llm

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"
)

var googleStatusPattern = regexp.MustCompile(`Error (\d{3})`)

// GoogleBackend calls Gemini models through the genai SDK
type GoogleBackend struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewGoogleBackend creates the Gemini adapter
func NewGoogleBackend(apiKey, baseURL string, httpClient *http.Client, timeout time.Duration) *GoogleBackend {
	return &GoogleBackend{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		timeout:    timeout,
	}
}

// ID returns the provider id
func (b *GoogleBackend) ID() ProviderID { return Google }

func (b *GoogleBackend) backend() {}

// Complete generates content from a single text prompt
func (b *GoogleBackend) Complete(ctx context.Context, req Request) Outcome[string] {
	config := &genai.ClientConfig{
		APIKey:     b.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: b.httpClient,
	}
	if b.baseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: b.baseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return Fail[string](NewFailure(KindNoCredential, Google, fmt.Sprintf("create client: %v", err)).WithCause(err))
	}

	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + req.Prompt
	}

	temp := float32(temperature)
	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(req.MaxTokens),
	})
	if err != nil {
		return Fail[string](b.classify(ctx, err, req.Model))
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Fail[string](NewFailure(KindInvalidResponse, Google, "no candidates in response"))
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Fail[string](NewFailure(KindInvalidResponse, Google, "empty candidate"))
	}
	return Success(text)
}

// classify maps SDK errors. The SDK reports remote statuses as "Error NNN, ..."
func (b *GoogleBackend) classify(ctx context.Context, err error, model string) *Failure {
	if ctx.Err() != nil {
		return transportFailure(Google, ctx.Err(), b.timeout)
	}
	if m := googleStatusPattern.FindStringSubmatch(err.Error()); m != nil {
		status, _ := strconv.Atoi(m[1])
		return statusFailure(Google, status, err.Error(), model).WithCause(err)
	}
	return transportFailure(Google, err, b.timeout)
}
