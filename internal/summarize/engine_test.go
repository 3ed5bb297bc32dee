package summarize

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/distill/internal/extract"
	"github.com/ppiankov/distill/internal/llm"
	"github.com/ppiankov/distill/internal/model"
)

// fakeGenerator answers by chunk prefix
type fakeGenerator struct {
	mu      sync.Mutex
	calls   []string
	respond func(ctx context.Context, content string) llm.Outcome[string]
}

func (f *fakeGenerator) Generate(ctx context.Context, content, instruction string, cfg *llm.ProviderConfig, maxTokens int) llm.Outcome[string] {
	f.mu.Lock()
	f.calls = append(f.calls, content)
	f.mu.Unlock()
	return f.respond(ctx, content)
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var testProvider = &llm.ProviderConfig{Provider: llm.OpenAI, Credential: "test-key"}

func newTestEngine(gen Generator) *Engine {
	e := NewEngine(extract.NewConceptExtractor(extract.BasicAnnotator{}, nil), gen, nil)
	e.pick = func(int) int { return 0 }
	return e
}

// threeChunkDocument produces three paragraphs that each fill most of a medium chunk
func threeChunkDocument() string {
	body := strings.Repeat("Cells divide and grow. ", 130)
	return "Alpha. " + body + "\n\nBeta. " + body + "\n\nGamma. " + body
}

func firstWord(content string) string {
	word, _, _ := strings.Cut(content, ".")
	return word
}

func TestEngine_Summarize_SingleChunkDetailed(t *testing.T) {
	content := "Intro paragraph.\n\nDetails paragraph with more than enough words to be kept twice over for testing purposes and filler."

	out := newTestEngine(nil).Summarize(context.Background(), Request{
		DocumentID: "doc-1",
		Content:    content,
		Level:      model.LevelDetailed,
	})

	if !out.OK() {
		t.Fatalf("Summarize failed: %v", out.Failure())
	}
	res := out.Value()
	if res.ChunkCount != 1 {
		t.Errorf("expected 1 chunk, got %d", res.ChunkCount)
	}
	if res.Summary == "" || len(extract.SplitSentences(res.Summary)) < 1 {
		t.Errorf("expected at least one sentence, got %q", res.Summary)
	}
	if res.UsedAI {
		t.Error("expected rule-based summary")
	}
	if res.WordCount != model.WordCount(content) {
		t.Errorf("expected word count %d, got %d", model.WordCount(content), res.WordCount)
	}
	want := float64(res.SummaryWordCount) / float64(res.WordCount)
	if res.CompressionRatio != want {
		t.Errorf("expected compression ratio %v, got %v", want, res.CompressionRatio)
	}
}

func TestEngine_Summarize_NoCredentialUsesRules(t *testing.T) {
	gen := &fakeGenerator{respond: func(ctx context.Context, content string) llm.Outcome[string] {
		t.Error("generator must not be called without a credential")
		return llm.Success("unused")
	}}

	out := newTestEngine(gen).Summarize(context.Background(), Request{
		Content:  threeChunkDocument(),
		Level:    model.LevelMedium,
		UseAI:    true,
		Provider: &llm.ProviderConfig{Provider: llm.OpenAI},
	})

	if !out.OK() {
		t.Fatalf("Summarize failed: %v", out.Failure())
	}
	if out.Value().UsedAI {
		t.Error("expected rule-based summary")
	}
	if out.Value().ChunkCount != 3 {
		t.Errorf("expected 3 chunks, got %d", out.Value().ChunkCount)
	}
}

func TestEngine_Summarize_OrderedCombination(t *testing.T) {
	delays := map[string]time.Duration{"Alpha": 30 * time.Millisecond, "Beta": 15 * time.Millisecond, "Gamma": 0}
	gen := &fakeGenerator{respond: func(ctx context.Context, content string) llm.Outcome[string] {
		word := firstWord(content)
		time.Sleep(delays[word])
		return llm.Success(word + " summary.")
	}}

	out := newTestEngine(gen).Summarize(context.Background(), Request{
		Content:  threeChunkDocument(),
		Level:    model.LevelMedium,
		UseAI:    true,
		Provider: testProvider,
	})

	if !out.OK() {
		t.Fatalf("Summarize failed: %v", out.Failure())
	}
	want := "Alpha summary.\n\nFurthermore, beta summary.\n\nFurthermore, gamma summary."
	if out.Value().Summary != want {
		t.Errorf("unexpected summary:\n%q\nwant\n%q", out.Value().Summary, want)
	}
	if !out.Value().UsedAI || out.Value().Provider != "openai" || out.Value().Model != "gpt-3.5-turbo" {
		t.Errorf("unexpected provider metadata: %+v", out.Value())
	}
}

func TestEngine_Summarize_FailFastInChunkOrder(t *testing.T) {
	second := llm.NewFailure(llm.KindRemoteStatus, llm.OpenAI, "API error (500)")
	third := llm.NewFailure(llm.KindTimeout, llm.OpenAI, "no response")

	gen := &fakeGenerator{respond: func(ctx context.Context, content string) llm.Outcome[string] {
		switch firstWord(content) {
		case "Beta":
			time.Sleep(10 * time.Millisecond)
			return llm.Fail[string](second)
		case "Gamma":
			return llm.Fail[string](third)
		}
		return llm.Success("Alpha summary.")
	}}

	out := newTestEngine(gen).Summarize(context.Background(), Request{
		Content:  threeChunkDocument(),
		Level:    model.LevelMedium,
		UseAI:    true,
		Provider: testProvider,
	})

	if out.OK() {
		t.Fatal("expected failure, got success")
	}
	if out.Failure() != second {
		t.Errorf("expected the second chunk's failure unchanged, got %v", out.Failure())
	}
}

func TestEngine_Summarize_DetailedRunsSequentially(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0
	gen := &fakeGenerator{respond: func(ctx context.Context, content string) llm.Outcome[string] {
		mu.Lock()
		active++
		peak = max(peak, active)
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return llm.Success("A detailed summary of this part of the document with many words.")
	}}

	out := newTestEngine(gen).Summarize(context.Background(), Request{
		Content:  threeChunkDocument(),
		Level:    model.LevelDetailed,
		UseAI:    true,
		Provider: testProvider,
	})

	if !out.OK() {
		t.Fatalf("Summarize failed: %v", out.Failure())
	}
	if peak != 1 {
		t.Errorf("expected one worker for detailed summaries, saw %d concurrent calls", peak)
	}
	if gen.callCount() != out.Value().ChunkCount {
		t.Errorf("expected one call per chunk, got %d calls for %d chunks", gen.callCount(), out.Value().ChunkCount)
	}
}

func TestEngine_Summarize_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &fakeGenerator{respond: func(ctx context.Context, content string) llm.Outcome[string] {
		return llm.Success("unused.")
	}}

	out := newTestEngine(gen).Summarize(ctx, Request{
		Content:  threeChunkDocument(),
		Level:    model.LevelMedium,
		UseAI:    true,
		Provider: testProvider,
	})

	if out.OK() {
		t.Fatal("expected failure, got success")
	}
	if out.Failure().Kind != llm.KindCanceled || !errors.Is(out.Failure(), context.Canceled) {
		t.Errorf("expected Canceled failure, got %v", out.Failure())
	}
	if gen.callCount() != 0 {
		t.Errorf("expected no generation after cancel, got %d", gen.callCount())
	}
}

func TestEngine_Summarize_EmptyContent(t *testing.T) {
	out := newTestEngine(nil).Summarize(context.Background(), Request{Content: " \n\n "})

	if out.OK() || out.Failure().Kind != llm.KindEmptyContent {
		t.Fatalf("expected EmptyContent, got %+v", out.Failure())
	}
	if out.Failure().Category() != llm.CategoryContent {
		t.Errorf("expected ContentError, got %s", out.Failure().Category())
	}
}

func TestEngine_Combine(t *testing.T) {
	e := newTestEngine(nil)

	tests := []struct {
		name      string
		summaries []string
		level     model.SummaryLevel
		want      string
	}{
		{"empty", nil, model.LevelMedium, ""},
		{"single", []string{"Only part."}, model.LevelMedium, "Only part."},
		{
			"long lead keeps text",
			[]string{"First part.", "This continuation sentence is long enough to stand on its own without help."},
			model.LevelDetailed,
			"First part.\n\nThis continuation sentence is long enough to stand on its own without help.",
		},
		{
			"existing transition kept",
			[]string{"First part.", "Furthermore, the cells divide."},
			model.LevelMedium,
			"First part.\n\nFurthermore, the cells divide.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Combine(tt.summaries, tt.level); got != tt.want {
				t.Errorf("Combine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEngine_Combine_BriefCondenses(t *testing.T) {
	e := newTestEngine(nil)
	summaries := []string{numberedDocument(10), numberedDocument(10)}

	got := e.Combine(summaries, model.LevelBrief)

	if n := len(extract.SplitSentences(got)); n != KeepCount(20, model.LevelBrief) {
		t.Errorf("expected %d sentences after condensing, got %d", KeepCount(20, model.LevelBrief), n)
	}
	if strings.Contains(got, "\n\n") {
		t.Error("expected a single condensed paragraph")
	}
}
