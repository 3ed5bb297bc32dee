// Package learning turns extracts into question/answer and cloze learning items.
package learning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/distill/internal/extract"
	"github.com/ppiankov/distill/internal/llm"
	"github.com/ppiankov/distill/internal/model"
	"github.com/ppiankov/distill/internal/store"
)

const (
	// Extracts shorter than this always use the rule-based path
	minAIWords      = 30
	defaultMaxItems = 5
)

const qaPrompt = `Generate %d high-quality question-answer pairs based on the following text.
The questions should test understanding of key concepts and information.
Make the questions specific and precise.
Write each pair as two lines:
- Question: <question>
- Answer: <answer>

Text: %s`

const clozePrompt = `Generate %d cloze deletion items based on the following text.
For each item, select an important sentence and replace one key term with [...].
Write each item as two lines:
- Question: <sentence with [...]>
- Answer: <removed term>

Text: %s`

// StructuredGenerator asks a backend for question/answer pairs
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, prompt string, cfg *llm.ProviderConfig, maxItems int) llm.Outcome[[]llm.Pair]
}

// Generator creates learning items for stored extracts
type Generator struct {
	repo      store.Repository
	extractor *extract.ConceptExtractor
	gateway   StructuredGenerator
	logger    *slog.Logger
	now       func() time.Time
}

// NewGenerator creates a learning item generator. gateway may be nil, in
// which case only rule-based items are produced.
func NewGenerator(repo store.Repository, extractor *extract.ConceptExtractor, gateway StructuredGenerator, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		repo:      repo,
		extractor: extractor,
		gateway:   gateway,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GenerateQA creates up to maxPairs question/answer items for an extract
func (g *Generator) GenerateQA(ctx context.Context, extractID string, maxPairs int, cfg *llm.ProviderConfig) llm.Outcome[[]model.LearningItem] {
	return g.generate(ctx, model.ItemQA, extractID, maxPairs, cfg)
}

// GenerateCloze creates up to maxItems cloze deletion items for an extract
func (g *Generator) GenerateCloze(ctx context.Context, extractID string, maxItems int, cfg *llm.ProviderConfig) llm.Outcome[[]model.LearningItem] {
	return g.generate(ctx, model.ItemCloze, extractID, maxItems, cfg)
}

func (g *Generator) generate(ctx context.Context, itemType model.ItemType, extractID string, count int, cfg *llm.ProviderConfig) llm.Outcome[[]model.LearningItem] {
	if count <= 0 {
		count = defaultMaxItems
	}

	ex, err := g.repo.GetExtract(ctx, extractID)
	if err != nil {
		return llm.Fail[[]model.LearningItem](storageFailure(fmt.Sprintf("load extract %s", extractID), err))
	}

	var pairs []llm.Pair
	if model.WordCount(ex.Content) >= minAIWords && g.gateway != nil && cfg.HasCredential() {
		provided, failure := g.provided(ctx, itemType, ex, count, cfg)
		if failure != nil {
			return llm.Fail[[]model.LearningItem](failure)
		}
		pairs = provided
	}

	if len(pairs) == 0 {
		pairs = g.ruleBased(itemType, ex.Content, count)
	}
	if len(pairs) == 0 {
		return llm.Fail[[]model.LearningItem](llm.NewFailure(llm.KindEmptyContent, "",
			fmt.Sprintf("no %s items could be generated from extract %s", itemType, extractID)).
			WithHint("the extract may be too short or contain no recognisable concepts"))
	}

	items := make([]model.LearningItem, 0, len(pairs))
	for _, p := range pairs {
		item := model.LearningItem{
			ExtractID: ex.ID,
			ItemType:  itemType,
			Question:  p.Question,
			Answer:    p.Answer,
			Priority:  model.ClampPriority(ex.Priority),
			CreatedAt: g.now(),
		}
		if err := g.repo.CreateLearningItem(ctx, &item); err != nil {
			return llm.Fail[[]model.LearningItem](storageFailure("save learning item", err))
		}
		items = append(items, item)
	}

	if err := g.repo.MarkExtractProcessed(ctx, ex.ID, g.now()); err != nil {
		return llm.Fail[[]model.LearningItem](storageFailure("mark extract processed", err))
	}

	g.logger.Info("Generated learning items", "extract", ex.ID, "type", itemType, "count", len(items))
	return llm.Success(items)
}

// provided asks the backend for pairs. Backend failures are logged and
// yield no pairs; only cancellation of ctx is returned.
func (g *Generator) provided(ctx context.Context, itemType model.ItemType, ex *model.Extract, count int, cfg *llm.ProviderConfig) ([]llm.Pair, *llm.Failure) {
	prompt := fmt.Sprintf(qaPrompt, count, ex.Content)
	if itemType == model.ItemCloze {
		prompt = fmt.Sprintf(clozePrompt, count, ex.Content)
	}

	out := g.gateway.GenerateStructured(ctx, prompt, cfg, count)
	if !out.OK() {
		if ctx.Err() != nil {
			return nil, out.Failure()
		}
		g.logger.Warn("Provider generation failed, using rule-based items",
			"extract", ex.ID,
			"type", itemType,
			"provider", cfg.Provider,
			"kind", out.Failure().Kind,
			"error", out.Failure())
		return nil, nil
	}

	pairs := out.Value()
	if itemType == model.ItemCloze {
		pairs = withPlaceholder(pairs)
	}
	if len(pairs) == 0 {
		g.logger.Warn("Provider returned no usable items, using rule-based items", "extract", ex.ID, "type", itemType)
	}
	return pairs, nil
}

func (g *Generator) ruleBased(itemType model.ItemType, content string, count int) []llm.Pair {
	ann := g.extractor.Analyze(content)
	concepts := g.extractor.ExtractFrom(ann, content, 2*count)
	sentences := ann.SentenceTexts()

	if itemType == model.ItemCloze {
		return ClozeFromConcepts(sentences, concepts, count)
	}
	return QAFromConcepts(content, sentences, concepts, count)
}

func withPlaceholder(pairs []llm.Pair) []llm.Pair {
	out := pairs[:0:0]
	for _, p := range pairs {
		if strings.Contains(p.Question, model.ClozePlaceholder) {
			out = append(out, p)
		}
	}
	return out
}

func storageFailure(action string, err error) *llm.Failure {
	f := llm.NewFailure(llm.KindStorage, "", action+": "+err.Error()).WithCause(err)
	if errors.Is(err, store.ErrNotFound) {
		f = f.WithHint("check the extract id")
	}
	return f
}
