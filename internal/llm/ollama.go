package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaBackend talks to a local Ollama server
type OllamaBackend struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Ollama API structures
type ollamaRequest struct {
	Model     string         `json:"model"`
	Prompt    string         `json:"prompt"`
	Stream    bool           `json:"stream"`
	System    string         `json:"system,omitempty"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Options   *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

type ollamaError struct {
	Error string `json:"error"`
}

type ollamaTags struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NormalizeHost turns a user supplied Ollama host into a base URL:
// a missing scheme becomes http and API paths are trimmed.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	host = strings.TrimSuffix(host, "/")
	for _, suffix := range []string{"/api/chat", "/api/generate", "/api"} {
		host = strings.TrimSuffix(host, suffix)
	}
	return strings.TrimSuffix(host, "/")
}

// NewOllamaBackend creates the Ollama adapter for the given host
func NewOllamaBackend(host string, httpClient *http.Client, timeout time.Duration) *OllamaBackend {
	baseURL := NormalizeHost(host)
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaBackend{
		baseURL:    baseURL,
		httpClient: httpClient,
		timeout:    timeout,
	}
}

// ID returns the provider id
func (b *OllamaBackend) ID() ProviderID { return Ollama }

func (b *OllamaBackend) backend() {}

// BaseURL returns the normalized server address
func (b *OllamaBackend) BaseURL() string { return b.baseURL }

// Complete streams a generation and concatenates the response fragments
func (b *OllamaBackend) Complete(ctx context.Context, req Request) Outcome[string] {
	apiReq := ollamaRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: true,
		System: req.System,
		Options: &ollamaOptions{
			Temperature: temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	httpResp, failure := b.post(ctx, apiReq)
	if failure != nil {
		return Fail[string](failure)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		return Fail[string](b.statusError(ctx, httpResp, req.Model))
	}

	var sb strings.Builder
	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk ollamaResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return Fail[string](NewFailure(KindInvalidResponse, Ollama, fmt.Sprintf("unmarshal stream chunk: %v", err)).WithCause(err))
		}
		if chunk.Error != "" {
			if isNotFound(chunk.Error) {
				return Fail[string](b.modelNotFound(ctx, req.Model, chunk.Error))
			}
			return Fail[string](NewFailure(KindRemoteStatus, Ollama, chunk.Error))
		}
		sb.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return Fail[string](transportFailure(Ollama, err, b.timeout))
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Fail[string](NewFailure(KindInvalidResponse, Ollama, "empty generation"))
	}
	return Success(text)
}

// WarmUp asks the server to load the model without generating anything
func (b *OllamaBackend) WarmUp(ctx context.Context, model string) *Failure {
	httpResp, failure := b.post(ctx, ollamaRequest{Model: model, KeepAlive: "5m"})
	if failure != nil {
		return failure
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		return b.statusError(ctx, httpResp, model)
	}
	_, _ = io.Copy(io.Discard, httpResp.Body)
	return nil
}

// Models lists the models installed on the server
func (b *OllamaBackend) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list models: HTTP %d", resp.StatusCode)
	}

	var tags ollamaTags
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (b *OllamaBackend) post(ctx context.Context, apiReq ollamaRequest) (*http.Response, *Failure) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, NewFailure(KindInvalidResponse, Ollama, fmt.Sprintf("marshal request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, NewFailure(KindNetwork, Ollama, fmt.Sprintf("create request: %v", err)).WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportFailure(Ollama, err, b.timeout)
	}
	return httpResp, nil
}

func (b *OllamaBackend) statusError(ctx context.Context, httpResp *http.Response, model string) *Failure {
	respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 64*1024))

	detail := string(respBody)
	var apiErr ollamaError
	if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
		detail = apiErr.Error
	}

	if httpResp.StatusCode == http.StatusNotFound || isNotFound(detail) {
		return b.modelNotFound(ctx, model, detail)
	}
	return statusFailure(Ollama, httpResp.StatusCode, detail, model)
}

// modelNotFound adds installed models resembling the requested one to the hint
func (b *OllamaBackend) modelNotFound(ctx context.Context, model, detail string) *Failure {
	f := modelNotFound(Ollama, model, detail)

	installed, err := b.Models(ctx)
	if err != nil {
		return f
	}
	if similar := SimilarModels(model, installed); len(similar) > 0 {
		f.Hint += "; installed models with a similar name: " + strings.Join(similar, ", ")
	}
	return f
}

// SimilarModels returns installed models sharing the family name of model
func SimilarModels(model string, installed []string) []string {
	family := strings.ToLower(model)
	if i := strings.Index(family, ":"); i >= 0 {
		family = family[:i]
	}
	if family == "" {
		return nil
	}

	var similar []string
	for _, name := range installed {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, family) || strings.Contains(family, strings.SplitN(lower, ":", 2)[0]) {
			similar = append(similar, name)
		}
	}
	return similar
}

func isNotFound(detail string) bool {
	return strings.Contains(strings.ToLower(detail), "not found")
}
