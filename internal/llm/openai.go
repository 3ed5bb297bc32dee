package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend talks to OpenAI-compatible chat completion APIs (OpenAI and OpenRouter)
type OpenAIBackend struct {
	id      ProviderID
	client  *openai.Client
	timeout time.Duration
}

// NewOpenAIBackend creates the OpenAI adapter
func NewOpenAIBackend(apiKey, baseURL string, httpClient *http.Client, timeout time.Duration) *OpenAIBackend {
	return newChatBackend(OpenAI, apiKey, baseURL, httpClient, timeout)
}

func newChatBackend(id ProviderID, apiKey, baseURL string, httpClient *http.Client, timeout time.Duration) *OpenAIBackend {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	config.HTTPClient = httpClient

	return &OpenAIBackend{
		id:      id,
		client:  openai.NewClientWithConfig(config),
		timeout: timeout,
	}
}

// ID returns the provider id
func (b *OpenAIBackend) ID() ProviderID { return b.id }

func (b *OpenAIBackend) backend() {}

// Complete sends a chat completion with a system and a user message
func (b *OpenAIBackend) Complete(ctx context.Context, req Request) Outcome[string] {
	chatReq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
	}

	resp, err := b.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Fail[string](b.classify(err, req.Model))
	}

	if len(resp.Choices) == 0 {
		return Fail[string](NewFailure(KindInvalidResponse, b.id, "no choices in response"))
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return Fail[string](NewFailure(KindInvalidResponse, b.id, "empty completion"))
	}
	return Success(text)
}

func (b *OpenAIBackend) classify(err error, model string) *Failure {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusNotFound || fmt.Sprint(apiErr.Code) == "model_not_found" {
			return modelNotFound(b.id, model, apiErr.Message).WithCause(err)
		}
		return statusFailure(b.id, apiErr.HTTPStatusCode, apiErr.Message, model).WithCause(err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return statusFailure(b.id, reqErr.HTTPStatusCode, reqErr.Error(), model).WithCause(err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return NewFailure(KindInvalidResponse, b.id, fmt.Sprintf("decode response: %v", err)).WithCause(err)
	}

	return transportFailure(b.id, err, b.timeout)
}
