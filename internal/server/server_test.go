package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/distill/internal/extract"
	"github.com/ppiankov/distill/internal/llm"
	"github.com/ppiankov/distill/internal/pipeline"
	"github.com/ppiankov/distill/internal/store"
)

const cellText = "Cells are the basic unit of life. Mitochondria produce energy for the cell. " +
	"The nucleus stores genetic material."

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	p := pipeline.New(pipeline.Components{
		Extractor:  extract.NewConceptExtractor(extract.BasicAnnotator{}, nil),
		Repository: store.NewMemory(),
	})
	ts := httptest.NewServer(New(p, nil).Routes())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body failed: %v", err)
	}
	return resp.StatusCode, data
}

func decodeBody(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s failed: %v", data, err)
	}
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	status, body := do(t, http.MethodGet, ts.URL+"/health", "")
	if status != http.StatusOK || string(body) != "OK" {
		t.Errorf("Expected 200 OK, got %d %q", status, body)
	}
}

func TestServer_Summarize(t *testing.T) {
	ts := newTestServer(t)

	status, body := do(t, http.MethodPost, ts.URL+"/api/v1/summaries",
		`{"text": "`+cellText+`", "title": "Cells", "level": "brief"}`)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, body)
	}

	var resp struct {
		Title     string `json:"title"`
		Level     string `json:"level"`
		Summary   string `json:"summary"`
		UsedAI    bool   `json:"used_ai"`
		ExtractID string `json:"extract_id"`
	}
	decodeBody(t, body, &resp)
	if resp.Title != "Cells" || resp.Level != "brief" || resp.Summary == "" || resp.UsedAI {
		t.Errorf("Unexpected summary response: %+v", resp)
	}
	if resp.ExtractID != "" {
		t.Errorf("Expected no extract without save, got %q", resp.ExtractID)
	}
}

func TestServer_Summarize_Save(t *testing.T) {
	ts := newTestServer(t)

	status, body := do(t, http.MethodPost, ts.URL+"/api/v1/summaries",
		`{"text": "`+cellText+`", "title": "Cells", "save": true}`)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, body)
	}
	var resp struct {
		ExtractID string `json:"extract_id"`
	}
	decodeBody(t, body, &resp)
	if resp.ExtractID == "" {
		t.Fatal("Expected an extract id")
	}

	status, body = do(t, http.MethodGet, ts.URL+"/api/v1/extracts/"+resp.ExtractID, "")
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, body)
	}
	var ex struct {
		Priority int    `json:"priority"`
		Content  string `json:"content"`
	}
	decodeBody(t, body, &ex)
	if ex.Priority != 70 || !strings.HasPrefix(ex.Content, "# Summary of Cells") {
		t.Errorf("Unexpected stored extract: %+v", ex)
	}
}

func TestServer_Summarize_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"text":`, http.StatusBadRequest},
		{"missing text", `{"title": "Cells"}`, http.StatusBadRequest},
		{"unknown level", `{"text": "Cells divide.", "level": "huge"}`, http.StatusBadRequest},
		{"unknown field", `{"text": "Cells divide.", "colour": "red"}`, http.StatusBadRequest},
		{"blank text", `{"text": "   "}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, http.MethodPost, ts.URL+"/api/v1/summaries", tt.body)
			if status != tt.status {
				t.Fatalf("Expected %d, got %d: %s", tt.status, status, body)
			}
			var resp ErrorResponse
			decodeBody(t, body, &resp)
			if resp.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestServer_Analysis(t *testing.T) {
	ts := newTestServer(t)

	status, body := do(t, http.MethodPost, ts.URL+"/api/v1/concepts", `{"text": "`+cellText+`", "count": 3}`)
	if status != http.StatusOK {
		t.Fatalf("concepts: expected 200, got %d: %s", status, body)
	}
	var concepts struct {
		Concepts []json.RawMessage `json:"concepts"`
	}
	decodeBody(t, body, &concepts)
	if len(concepts.Concepts) == 0 || len(concepts.Concepts) > 3 {
		t.Errorf("Expected 1-3 concepts, got %d", len(concepts.Concepts))
	}

	text := "# Cells\\n\\nCells are small.\\n\\n# Energy\\n\\nMitochondria produce energy."
	status, body = do(t, http.MethodPost, ts.URL+"/api/v1/sections", `{"text": "`+text+`"}`)
	if status != http.StatusOK {
		t.Fatalf("sections: expected 200, got %d: %s", status, body)
	}
	var sections struct {
		Sections []json.RawMessage `json:"sections"`
	}
	decodeBody(t, body, &sections)
	if len(sections.Sections) == 0 {
		t.Error("Expected sections")
	}

	status, body = do(t, http.MethodPost, ts.URL+"/api/v1/sections", `{"text": "`+text+`", "key": 1}`)
	if status != http.StatusOK {
		t.Fatalf("key sections: expected 200, got %d: %s", status, body)
	}
	var key struct {
		KeySections []json.RawMessage `json:"key_sections"`
	}
	decodeBody(t, body, &key)
	if len(key.KeySections) != 1 {
		t.Errorf("Expected one key section, got %d", len(key.KeySections))
	}

	status, body = do(t, http.MethodPost, ts.URL+"/api/v1/tags",
		`{"text": "Mitochondria produce energy. Mitochondria divide inside cells.", "count": 2}`)
	if status != http.StatusOK {
		t.Fatalf("tags: expected 200, got %d: %s", status, body)
	}
	var tags struct {
		Tags []string `json:"tags"`
	}
	decodeBody(t, body, &tags)
	if len(tags.Tags) == 0 || len(tags.Tags) > 2 {
		t.Errorf("Expected 1-2 tags, got %v", tags.Tags)
	}
}

func TestServer_ExtractLifecycle(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1/extracts"

	status, body := do(t, http.MethodPost, base,
		`{"content": "The mitochondria is the powerhouse of the cell.", "priority": 80}`)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", status, body)
	}
	var ex struct {
		ID       string `json:"id"`
		Priority int    `json:"priority"`
	}
	decodeBody(t, body, &ex)
	if ex.ID == "" || ex.Priority != 80 {
		t.Fatalf("Unexpected extract: %+v", ex)
	}

	status, body = do(t, http.MethodPost, base+"/"+ex.ID+"/items", `{"type": "cloze", "max": 2}`)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", status, body)
	}
	var generated struct {
		Items []struct {
			ItemType string `json:"item_type"`
			Question string `json:"question"`
		} `json:"items"`
	}
	decodeBody(t, body, &generated)
	if len(generated.Items) == 0 {
		t.Fatal("Expected generated items")
	}
	for _, item := range generated.Items {
		if item.ItemType != "cloze" || !strings.Contains(item.Question, "[...]") {
			t.Errorf("Unexpected item: %+v", item)
		}
	}

	status, body = do(t, http.MethodGet, base+"/"+ex.ID+"/items", "")
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, body)
	}
	var listed struct {
		Items []json.RawMessage `json:"items"`
	}
	decodeBody(t, body, &listed)
	if len(listed.Items) != len(generated.Items) {
		t.Errorf("Expected %d stored items, got %d", len(generated.Items), len(listed.Items))
	}

	status, body = do(t, http.MethodGet, base+"/"+ex.ID+"/related?k=3", "")
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, body)
	}
	var related struct {
		Related []json.RawMessage `json:"related"`
	}
	decodeBody(t, body, &related)
	if related.Related == nil || len(related.Related) != 0 {
		t.Errorf("Expected an empty related list, got %s", body)
	}
}

func TestServer_ExtractErrors(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1/extracts"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"missing extract", http.MethodGet, "/absent", "", http.StatusNotFound},
		{"items for missing extract", http.MethodGet, "/absent/items", "", http.StatusNotFound},
		{"generate for missing extract", http.MethodPost, "/absent/items", `{"type": "qa"}`, http.StatusNotFound},
		{"related for missing extract", http.MethodGet, "/absent/related", "", http.StatusNotFound},
		{"unknown item type", http.MethodPost, "/absent/items", `{"type": "flashcard"}`, http.StatusBadRequest},
		{"invalid k", http.MethodGet, "/absent/related?k=zero", "", http.StatusBadRequest},
		{"blank content", http.MethodPost, "", `{"content": "   "}`, http.StatusBadRequest},
		{"priority out of range", http.MethodPost, "", `{"content": "Cells.", "priority": 500}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, tt.method, base+tt.path, tt.body)
			if status != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, status, body)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("get extract x: %w", store.ErrNotFound), http.StatusNotFound},
		{"invalid entity", fmt.Errorf("create: %w", store.ErrInvalidEntity), http.StatusBadRequest},
		{"bad request", fmt.Errorf("%w: broken", errBadRequest), http.StatusBadRequest},
		{"empty content", llm.NewFailure(llm.KindEmptyContent, "", "empty"), http.StatusUnprocessableEntity},
		{"no credential", llm.NewFailure(llm.KindNoCredential, llm.OpenAI, "missing key"), http.StatusBadRequest},
		{"remote status", llm.NewFailure(llm.KindRemoteStatus, llm.OpenAI, "API error (500)"), http.StatusBadGateway},
		{"connection refused", llm.NewFailure(llm.KindConnectionRefused, llm.Ollama, "refused"), http.StatusBadGateway},
		{"invalid response", llm.NewFailure(llm.KindInvalidResponse, llm.Google, "bad json"), http.StatusBadGateway},
		{"timeout", llm.NewFailure(llm.KindTimeout, llm.Anthropic, "slow"), http.StatusGatewayTimeout},
		{"storage", llm.NewFailure(llm.KindStorage, "", "disk"), http.StatusInternalServerError},
		{"storage not found", llm.NewFailure(llm.KindStorage, "", "load").WithCause(store.ErrExtractNotFound), http.StatusNotFound},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}
