package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AnthropicBackend implements the Messages API of Anthropic Claude models
type AnthropicBackend struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Anthropic API structures
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicBackend creates the Anthropic adapter
func NewAnthropicBackend(apiKey, baseURL string, httpClient *http.Client, timeout time.Duration) *AnthropicBackend {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return &AnthropicBackend{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
	}
}

// ID returns the provider id
func (b *AnthropicBackend) ID() ProviderID { return Anthropic }

func (b *AnthropicBackend) backend() {}

// Complete sends the instruction and content as a single user message
func (b *AnthropicBackend) Complete(ctx context.Context, req Request) Outcome[string] {
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + req.Prompt
	}

	apiReq := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	}

	resp, failure := b.makeRequest(ctx, apiReq)
	if failure != nil {
		return Fail[string](failure)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "" || block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Fail[string](NewFailure(KindInvalidResponse, Anthropic, "no text content in response"))
	}
	return Success(text)
}

// makeRequest makes an HTTP request to the Anthropic API
func (b *AnthropicBackend) makeRequest(ctx context.Context, apiReq anthropicRequest) (*anthropicResponse, *Failure) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, NewFailure(KindInvalidResponse, Anthropic, fmt.Sprintf("marshal request: %v", err))
	}

	url := fmt.Sprintf("%s/v1/messages", b.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewFailure(KindNetwork, Anthropic, fmt.Sprintf("create request: %v", err)).WithCause(err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", b.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportFailure(Anthropic, err, b.timeout)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, transportFailure(Anthropic, err, b.timeout)
	}

	if httpResp.StatusCode != http.StatusOK {
		detail := string(respBody)
		var apiErr anthropicError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			detail = apiErr.Error.Type + " - " + apiErr.Error.Message
		}
		return nil, statusFailure(Anthropic, httpResp.StatusCode, detail, apiReq.Model)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, NewFailure(KindInvalidResponse, Anthropic, fmt.Sprintf("unmarshal response: %v", err)).WithCause(err)
	}

	return &resp, nil
}
