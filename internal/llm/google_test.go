package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGoogleBackend_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-pro:generateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"role": "model", "parts": [{"text": "Cells "}, {"text": "divide."}]}}]}`))
	}))
	defer server.Close()

	backend := NewGoogleBackend("test-key", server.URL, server.Client(), time.Second)
	out := backend.Complete(context.Background(), Request{Prompt: "text", Model: "gemini-pro", MaxTokens: 150})

	if !out.OK() {
		t.Fatalf("Complete failed: %v", out.Failure())
	}
	if out.Value() != "Cells divide." {
		t.Errorf("Unexpected completion: %q", out.Value())
	}
}

func TestGoogleBackend_Complete_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	backend := NewGoogleBackend("test-key", server.URL, server.Client(), time.Second)
	out := backend.Complete(context.Background(), Request{Prompt: "text", Model: "gemini-pro"})

	if out.OK() || out.Failure().Kind != KindInvalidResponse {
		t.Fatalf("Expected InvalidResponse, got %+v", out.Failure())
	}
}

func TestGoogleBackend_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`))
	}))
	defer server.Close()

	backend := NewGoogleBackend("test-key", server.URL, server.Client(), time.Second)
	out := backend.Complete(context.Background(), Request{Prompt: "text", Model: "gemini-pro"})

	if out.OK() {
		t.Fatal("Expected failure, got success")
	}
	if out.Failure().Provider != Google {
		t.Errorf("Expected provider google, got %s", out.Failure().Provider)
	}
}
