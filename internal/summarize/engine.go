package summarize

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/distill/internal/chunk"
	"github.com/ppiankov/distill/internal/extract"
	"github.com/ppiankov/distill/internal/llm"
	"github.com/ppiankov/distill/internal/model"
	"github.com/ppiankov/distill/internal/worker"
)

const (
	keyConcepts    = 10
	maxWorkers     = 3
	shortLeadWords = 10
)

var transitions = []string{
	"Furthermore, ", "Additionally, ", "Moreover, ",
	"In addition, ", "Also, ", "Beyond that, ",
	"Next, ", "Following this, ",
}

// Instruction is the generation instruction for a summary level
func Instruction(level model.SummaryLevel) string {
	switch level {
	case model.LevelBrief:
		return "Provide a very concise summary capturing only the most important points."
	case model.LevelMedium:
		return "Provide a balanced summary with main points and important details."
	default:
		return "Provide a comprehensive summary with all important information and key details."
	}
}

// MaxTokens is the generation budget for a summary level
func MaxTokens(level model.SummaryLevel) int {
	switch level {
	case model.LevelBrief:
		return 150
	case model.LevelMedium:
		return 300
	default:
		return 500
	}
}

// Generator produces text through an external backend
type Generator interface {
	Generate(ctx context.Context, content, instruction string, cfg *llm.ProviderConfig, maxTokens int) llm.Outcome[string]
}

// Request describes one document summarization
type Request struct {
	DocumentID string
	Title      string
	Content    string
	Level      model.SummaryLevel
	UseAI      bool
	Provider   *llm.ProviderConfig // Read only
}

// Engine chunks a document, summarizes chunks in parallel and combines the
// partial summaries.
type Engine struct {
	extractor *extract.ConceptExtractor
	rules     *RuleBased
	generator Generator
	logger    *slog.Logger
	pick      func(n int) int
}

// NewEngine creates a summarization engine. generator may be nil when only
// rule-based summaries are wanted.
func NewEngine(extractor *extract.ConceptExtractor, generator Generator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		extractor: extractor,
		rules:     NewRuleBased(extractor),
		generator: generator,
		logger:    logger,
		pick:      rand.IntN,
	}
}

// Rules returns the rule-based summarizer used by the engine
func (e *Engine) Rules() *RuleBased {
	return e.rules
}

// Summarize produces a summary of req.Content. The first chunk failure, in
// chunk order, is returned unchanged.
func (e *Engine) Summarize(ctx context.Context, req Request) llm.Outcome[*model.SummaryResult] {
	if strings.TrimSpace(req.Content) == "" {
		return llm.Fail[*model.SummaryResult](llm.NewFailure(llm.KindEmptyContent, "", "document has no text to summarize").
			WithHint("check that the document is readable and not empty"))
	}

	level := req.Level
	if level == "" {
		level = model.LevelMedium
	}

	useAI := req.UseAI && e.generator != nil && req.Provider.HasCredential()
	if req.UseAI && !useAI {
		e.logger.Info("No provider credential, using rule-based summarization", "document", req.DocumentID)
	}

	chunks := chunk.Split(req.Content, level)
	workers := 1
	if level != model.LevelDetailed {
		workers = min(len(chunks), maxWorkers)
	}

	e.logger.Debug("Summarizing document",
		"document", req.DocumentID,
		"level", level,
		"chunks", len(chunks),
		"workers", workers,
		"ai", useAI)

	pool := worker.NewPool(ctx, workers)
	pool.Start()
	for _, c := range chunks {
		pool.Submit(&chunkJob{
			text:   c.Text,
			level:  level,
			engine: e,
			useAI:  useAI,
			cfg:    req.Provider,
		})
	}
	results := pool.Wait()

	summaries := make([]string, 0, len(chunks))
	for i, res := range results {
		r, ok := res.(*chunkResult)
		if !ok || r == nil {
			return llm.Fail[*model.SummaryResult](canceled(ctx))
		}
		if r.failure != nil {
			e.logger.Warn("Chunk summarization failed", "document", req.DocumentID, "chunk", i, "kind", r.failure.Kind)
			return llm.Fail[*model.SummaryResult](r.failure)
		}
		if r.summary != "" {
			summaries = append(summaries, r.summary)
		}
	}

	combined := e.Combine(summaries, level)

	result := &model.SummaryResult{
		DocumentID:       req.DocumentID,
		Title:            req.Title,
		Level:            level,
		Summary:          combined,
		KeyConcepts:      model.ConceptTexts(e.extractor.Extract(req.Content, keyConcepts)),
		ChunkCount:       len(chunks),
		WordCount:        model.WordCount(req.Content),
		SummaryWordCount: model.WordCount(combined),
		UsedAI:           useAI,
	}
	result.CompressionRatio = float64(result.SummaryWordCount) / float64(max(1, result.WordCount))
	if result.KeyConcepts == nil {
		result.KeyConcepts = []string{}
	}

	if useAI {
		result.Provider = string(req.Provider.Provider)
		result.Model = req.Provider.Model
		if info, ok := llm.Lookup(req.Provider.Provider); ok && result.Model == "" {
			result.Model = info.DefaultModel
		}
	}

	return llm.Success(result)
}

// Combine joins chunk summaries. Brief multi-chunk summaries are condensed
// again; otherwise a short continuation gets a transition phrase.
func (e *Engine) Combine(summaries []string, level model.SummaryLevel) string {
	if len(summaries) == 0 {
		return ""
	}

	if level == model.LevelBrief && len(summaries) > 1 {
		return e.rules.Summarize(strings.Join(summaries, " "), model.LevelBrief)
	}

	out := make([]string, len(summaries))
	for i, summary := range summaries {
		if i > 0 && leadWords(summary) < shortLeadWords {
			summary = e.withTransition(summary)
		}
		out[i] = summary
	}
	return strings.Join(out, "\n\n")
}

func (e *Engine) withTransition(summary string) string {
	transition := transitions[e.pick(len(transitions))]
	if strings.HasPrefix(summary, transition) {
		return summary
	}

	first, size := utf8.DecodeRuneInString(summary)
	return transition + string(unicode.ToLower(first)) + summary[size:]
}

// leadWords counts the words of the first ". " delimited sentence
func leadWords(summary string) int {
	first, _, _ := strings.Cut(summary, ". ")
	return model.WordCount(first + ".")
}

func canceled(ctx context.Context) *llm.Failure {
	err := ctx.Err()
	if err == nil {
		err = context.Canceled
	}
	return llm.NewFailure(llm.KindCanceled, "", "summarization canceled").WithCause(err)
}

type chunkJob struct {
	text   string
	level  model.SummaryLevel
	engine *Engine
	useAI  bool
	cfg    *llm.ProviderConfig
}

func (j *chunkJob) Execute(ctx context.Context) worker.Result {
	if !j.useAI {
		return &chunkResult{summary: j.engine.rules.Summarize(j.text, j.level)}
	}

	out := j.engine.generator.Generate(ctx, j.text, Instruction(j.level), j.cfg, MaxTokens(j.level))
	if !out.OK() {
		return &chunkResult{failure: out.Failure()}
	}
	return &chunkResult{summary: strings.TrimSpace(out.Value())}
}

type chunkResult struct {
	summary string
	failure *llm.Failure
}

func (r *chunkResult) GetError() error {
	if r.failure == nil {
		return nil
	}
	return r.failure
}
