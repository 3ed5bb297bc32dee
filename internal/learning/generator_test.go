package learning

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/distill/internal/extract"
	"github.com/ppiankov/distill/internal/llm"
	"github.com/ppiankov/distill/internal/model"
	"github.com/ppiankov/distill/internal/store"
)

const longExtract = "Cellular respiration converts glucose into usable energy. " +
	"The process begins with glycolysis in the cytoplasm and continues inside the mitochondria. " +
	"Oxygen acts as the final electron acceptor, and most of the energy is stored as ATP for later use by the cell."

type fakeGateway struct {
	mu      sync.Mutex
	prompts []string
	respond func(ctx context.Context) llm.Outcome[[]llm.Pair]
}

func (f *fakeGateway) GenerateStructured(ctx context.Context, prompt string, cfg *llm.ProviderConfig, maxItems int) llm.Outcome[[]llm.Pair] {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(ctx)
}

var aiConfig = &llm.ProviderConfig{Provider: llm.OpenAI, Credential: "test-key"}

func newTestGenerator(t *testing.T, repo store.Repository, gw StructuredGenerator) *Generator {
	t.Helper()
	return NewGenerator(repo, extract.NewConceptExtractor(extract.BasicAnnotator{}, nil), gw, nil)
}

func seedExtract(t *testing.T, repo store.Repository, content string) *model.Extract {
	t.Helper()
	e := &model.Extract{Content: content, Priority: 60}
	if err := repo.CreateExtract(context.Background(), e); err != nil {
		t.Fatalf("CreateExtract failed: %v", err)
	}
	return e
}

func TestGenerator_GenerateCloze_ShortExtractUsesRules(t *testing.T) {
	repo := store.NewMemory()
	e := seedExtract(t, repo, "The mitochondria is the powerhouse of the cell.")
	gw := &fakeGateway{respond: func(ctx context.Context) llm.Outcome[[]llm.Pair] {
		t.Error("short extracts must not reach the provider")
		return llm.Success([]llm.Pair{})
	}}

	out := newTestGenerator(t, repo, gw).GenerateCloze(context.Background(), e.ID, 5, aiConfig)

	if !out.OK() {
		t.Fatalf("GenerateCloze failed: %v", out.Failure())
	}
	items := out.Value()
	if len(items) == 0 {
		t.Fatal("expected at least one cloze")
	}
	for _, item := range items {
		if item.ItemType != model.ItemCloze || !strings.Contains(item.Question, model.ClozePlaceholder) {
			t.Errorf("unexpected item: %+v", item)
		}
		if item.Priority != 60 || item.ExtractID != e.ID {
			t.Errorf("item not linked to extract: %+v", item)
		}
	}

	stored, _ := repo.ListLearningItems(context.Background(), e.ID)
	if len(stored) != len(items) {
		t.Errorf("expected %d stored items, got %d", len(items), len(stored))
	}
	got, _ := repo.GetExtract(context.Background(), e.ID)
	if !got.Processed {
		t.Error("expected extract to be marked processed")
	}
}

func TestGenerator_GenerateQA_UsesProvider(t *testing.T) {
	repo := store.NewMemory()
	e := seedExtract(t, repo, longExtract)
	gw := &fakeGateway{respond: func(ctx context.Context) llm.Outcome[[]llm.Pair] {
		return llm.Success([]llm.Pair{
			{Question: "What does glycolysis produce?", Answer: "Pyruvate"},
			{Question: "Where is ATP made?", Answer: "In the mitochondria"},
		})
	}}

	out := newTestGenerator(t, repo, gw).GenerateQA(context.Background(), e.ID, 2, aiConfig)

	if !out.OK() {
		t.Fatalf("GenerateQA failed: %v", out.Failure())
	}
	if len(out.Value()) != 2 || out.Value()[0].Answer != "Pyruvate" {
		t.Errorf("unexpected items: %+v", out.Value())
	}
	if len(gw.prompts) != 1 || !strings.Contains(gw.prompts[0], "Generate 2 high-quality") || !strings.Contains(gw.prompts[0], "- Question:") {
		t.Errorf("unexpected prompt: %q", gw.prompts)
	}
}

func TestGenerator_GenerateQA_ProviderFailureFallsBack(t *testing.T) {
	repo := store.NewMemory()
	e := seedExtract(t, repo, longExtract)
	gw := &fakeGateway{respond: func(ctx context.Context) llm.Outcome[[]llm.Pair] {
		return llm.Fail[[]llm.Pair](llm.NewFailure(llm.KindRemoteStatus, llm.OpenAI, "API error (500)"))
	}}

	out := newTestGenerator(t, repo, gw).GenerateQA(context.Background(), e.ID, 3, aiConfig)

	if !out.OK() {
		t.Fatalf("expected rule-based fallback, got %v", out.Failure())
	}
	for _, item := range out.Value() {
		if !strings.HasPrefix(item.Question, "What is ") {
			t.Errorf("expected rule-based question, got %q", item.Question)
		}
	}
}

func TestGenerator_GenerateCloze_DropsItemsWithoutPlaceholder(t *testing.T) {
	repo := store.NewMemory()
	e := seedExtract(t, repo, longExtract)
	gw := &fakeGateway{respond: func(ctx context.Context) llm.Outcome[[]llm.Pair] {
		return llm.Success([]llm.Pair{{Question: "No placeholder here.", Answer: "x"}})
	}}

	out := newTestGenerator(t, repo, gw).GenerateCloze(context.Background(), e.ID, 3, aiConfig)

	if !out.OK() {
		t.Fatalf("expected rule-based fallback, got %v", out.Failure())
	}
	for _, item := range out.Value() {
		if item.Question == "No placeholder here." {
			t.Error("provider item without placeholder was kept")
		}
	}
}

func TestGenerator_NoCredentialSkipsProvider(t *testing.T) {
	repo := store.NewMemory()
	e := seedExtract(t, repo, longExtract)
	gw := &fakeGateway{respond: func(ctx context.Context) llm.Outcome[[]llm.Pair] {
		t.Error("provider called without a credential")
		return llm.Success([]llm.Pair{})
	}}

	out := newTestGenerator(t, repo, gw).GenerateQA(context.Background(), e.ID, 3, &llm.ProviderConfig{Provider: llm.OpenAI})

	if !out.OK() {
		t.Fatalf("GenerateQA failed: %v", out.Failure())
	}
}

func TestGenerator_MissingExtract(t *testing.T) {
	out := newTestGenerator(t, store.NewMemory(), nil).GenerateQA(context.Background(), "missing", 3, nil)

	if out.OK() {
		t.Fatal("expected failure for missing extract")
	}
	if out.Failure().Kind != llm.KindStorage || !errors.Is(out.Failure(), store.ErrNotFound) {
		t.Errorf("expected Storage failure wrapping ErrNotFound, got %v", out.Failure())
	}
}

func TestGenerator_Canceled(t *testing.T) {
	repo := store.NewMemory()
	e := seedExtract(t, repo, longExtract)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gw := &fakeGateway{respond: func(context.Context) llm.Outcome[[]llm.Pair] {
		cancel()
		return llm.Fail[[]llm.Pair](llm.NewFailure(llm.KindCanceled, llm.OpenAI, "request canceled"))
	}}

	out := newTestGenerator(t, repo, gw).GenerateQA(ctx, e.ID, 3, aiConfig)

	if out.OK() || out.Failure().Kind != llm.KindCanceled {
		t.Fatalf("expected Canceled failure, got %+v", out)
	}
	items, _ := repo.ListLearningItems(context.Background(), e.ID)
	if len(items) != 0 {
		t.Errorf("expected nothing persisted after cancel, got %d items", len(items))
	}
}

type failingRepo struct {
	*store.Memory
}

func (failingRepo) CreateLearningItem(context.Context, *model.LearningItem) error {
	return errors.New("disk full")
}

func TestGenerator_PersistenceFailure(t *testing.T) {
	repo := failingRepo{store.NewMemory()}
	e := seedExtract(t, repo, "The mitochondria is the powerhouse of the cell.")

	out := newTestGenerator(t, repo, nil).GenerateCloze(context.Background(), e.ID, 3, nil)

	if out.OK() || out.Failure().Kind != llm.KindStorage {
		t.Fatalf("expected Storage failure, got %+v", out.Failure())
	}
	if out.Failure().Category() != llm.CategoryStorage {
		t.Errorf("expected StorageError, got %s", out.Failure().Category())
	}
}

func TestGenerator_NothingToGenerate(t *testing.T) {
	repo := store.NewMemory()
	e := seedExtract(t, repo, "It is.")

	out := newTestGenerator(t, repo, nil).GenerateCloze(context.Background(), e.ID, 3, nil)

	if out.OK() || out.Failure().Kind != llm.KindEmptyContent {
		t.Fatalf("expected EmptyContent failure, got %+v", out)
	}
}
