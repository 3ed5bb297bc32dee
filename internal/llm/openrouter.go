package llm

import (
	"net/http"
	"time"
)

// NewOpenRouterBackend creates the OpenRouter adapter. OpenRouter speaks the
// OpenAI protocol and asks clients to identify themselves with extra headers.
func NewOpenRouterBackend(apiKey, baseURL string, httpClient *http.Client, timeout time.Duration) *OpenAIBackend {
	client := *httpClient
	client.Transport = &headerTransport{
		base: httpClient.Transport,
		headers: map[string]string{
			"HTTP-Referer": "https://github.com/ppiankov/distill",
			"X-Title":      "distill",
		},
	}
	return newChatBackend(OpenRouter, apiKey, baseURL, &client, timeout)
}

// headerTransport adds fixed headers to every request
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
