// Package pipeline wires reading, analysis, summarization, learning item
// generation and persistence into the operations exposed by the CLI and the
// HTTP API.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/distill/internal/cache"
	"github.com/ppiankov/distill/internal/extract"
	"github.com/ppiankov/distill/internal/learning"
	"github.com/ppiankov/distill/internal/llm"
	"github.com/ppiankov/distill/internal/model"
	"github.com/ppiankov/distill/internal/segment"
	"github.com/ppiankov/distill/internal/source"
	"github.com/ppiankov/distill/internal/store"
	"github.com/ppiankov/distill/internal/summarize"
	"github.com/ppiankov/distill/internal/tags"
	"github.com/ppiankov/distill/internal/worker"
)

const (
	summaryExtractPriority = 70
	defaultSuggestions     = 5
	defaultRelated         = 5
	memoTTL                = time.Hour
)

// DocumentReader resolves a reference to document text
type DocumentReader interface {
	Read(ctx context.Context, ref string) (*source.Document, error)
}

// Gateway is the text generation surface used for summaries and learning items
type Gateway interface {
	summarize.Generator
	learning.StructuredGenerator
}

// Components are the collaborators of a Pipeline. Gateway and Provider may
// be nil, which restricts the pipeline to rule-based output.
type Components struct {
	Reader     DocumentReader
	Extractor  *extract.ConceptExtractor
	Gateway    Gateway
	Repository store.Repository
	Provider   *llm.ProviderConfig
	Summary    SummaryOptions
	MaxItems   int
	Logger     *slog.Logger
}

// SummaryOptions selects the summary level and whether a provider is used
type SummaryOptions struct {
	Level model.SummaryLevel
	UseAI bool
}

// Pipeline orchestrates the document operations
type Pipeline struct {
	reader    DocumentReader
	extractor *extract.ConceptExtractor
	engine    *summarize.Engine
	segmenter *segment.Segmenter
	learning  *learning.Generator
	suggester *tags.Suggester
	ranker    *tags.Ranker
	repo      store.Repository
	provider  *llm.ProviderConfig
	defaults  SummaryOptions
	maxItems  int
	logger    *slog.Logger
}

// New creates a pipeline from explicit components
func New(c Components) *Pipeline {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Extractor == nil {
		c.Extractor = extract.NewConceptExtractor(extract.NewProseAnnotator(), c.Logger)
	}
	if c.Repository == nil {
		c.Repository = store.NewMemory()
	}
	if c.Summary.Level == "" {
		c.Summary.Level = model.LevelMedium
	}

	var gen summarize.Generator
	var structured learning.StructuredGenerator
	if c.Gateway != nil {
		gen, structured = c.Gateway, c.Gateway
	}

	return &Pipeline{
		reader:    c.Reader,
		extractor: c.Extractor,
		engine:    summarize.NewEngine(c.Extractor, gen, c.Logger),
		segmenter: segment.New(c.Extractor),
		learning:  learning.NewGenerator(c.Repository, c.Extractor, structured, c.Logger),
		suggester: tags.NewSuggester(c.Extractor),
		ranker:    tags.NewRanker(),
		repo:      c.Repository,
		provider:  c.Provider,
		defaults:  c.Summary,
		maxItems:  c.MaxItems,
		logger:    c.Logger,
	}
}

// NewPipeline builds every component from configuration
func NewPipeline(cfg *model.Config, repo store.Repository, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := llm.ConfigFromModel(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}
	level, err := model.ParseLevel(cfg.Summary.Level)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = source.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	memo := cache.NewMemory(memoTTL)

	gateway := llm.NewGateway(
		llm.WithHTTPClient(&http.Client{Transport: transport}),
		llm.WithCache(memo),
		llm.WithLimiter(worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)),
		llm.WithLogger(logger),
	)

	reader := source.NewReader(source.Options{
		UserAgent:  cfg.HTTP.UserAgent,
		Timeout:    cfg.HTTP.Timeout,
		MaxBytes:   cfg.HTTP.MaxBytes,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
		Cache:      memo,
	}, logger)

	return New(Components{
		Reader:     reader,
		Extractor:  extract.NewConceptExtractor(extract.NewProseAnnotator(), logger),
		Gateway:    gateway,
		Repository: repo,
		Provider:   provider,
		Summary:    SummaryOptions{Level: level, UseAI: cfg.Summary.UseAI},
		MaxItems:   cfg.Learning.MaxItems,
		Logger:     logger,
	}), nil
}

// Defaults returns the configured summary options
func (p *Pipeline) Defaults() SummaryOptions {
	return p.defaults
}

// Provider returns the configured provider, or nil
func (p *Pipeline) Provider() *llm.ProviderConfig {
	return p.provider
}

// Read resolves a document reference
func (p *Pipeline) Read(ctx context.Context, ref string) (*source.Document, error) {
	if p.reader == nil {
		return nil, fmt.Errorf("read %s: no document reader configured", ref)
	}
	doc, err := p.reader.Read(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return doc, nil
}

// Summarize summarizes an already read document
func (p *Pipeline) Summarize(ctx context.Context, doc *source.Document, opts SummaryOptions) (*model.SummaryResult, error) {
	return p.engine.Summarize(ctx, summarize.Request{
		DocumentID: doc.Ref,
		Title:      doc.Title,
		Content:    doc.Text,
		Level:      opts.Level,
		UseAI:      opts.UseAI,
		Provider:   p.provider,
	}).Result()
}

// SummarizeRef reads and summarizes a document with the default options
func (p *Pipeline) SummarizeRef(ctx context.Context, ref string) (*model.SummaryResult, error) {
	doc, err := p.Read(ctx, ref)
	if err != nil {
		return nil, err
	}
	return p.Summarize(ctx, doc, p.defaults)
}

// Concepts returns the n most important concepts of text
func (p *Pipeline) Concepts(text string, n int) []model.Concept {
	return p.extractor.Extract(text, n)
}

// Sections segments text into scored sections
func (p *Pipeline) Sections(text string) []model.Section {
	return p.segmenter.Segment(text)
}

// KeySections returns the highest scoring sections in document order
func (p *Pipeline) KeySections(text string, limit int) []model.KeySection {
	return summarize.KeySections(text, limit)
}

// Tags suggests up to k tags for free text
func (p *Pipeline) Tags(text string, k int) []string {
	return p.suggester.Suggest(text, k)
}

// CreateExtract validates and stores an extract. A zero priority becomes 50.
func (p *Pipeline) CreateExtract(ctx context.Context, ex *model.Extract) error {
	ex.Content = strings.TrimSpace(ex.Content)
	ex.Priority = model.ClampPriority(ex.Priority)
	if err := p.repo.CreateExtract(ctx, ex); err != nil {
		return fmt.Errorf("create extract: %w", err)
	}
	p.logger.Debug("Created extract", "id", ex.ID, "document", ex.DocumentID, "priority", ex.Priority)
	return nil
}

// GetExtract loads a stored extract
func (p *Pipeline) GetExtract(ctx context.Context, id string) (*model.Extract, error) {
	ex, err := p.repo.GetExtract(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get extract %s: %w", id, err)
	}
	return ex, nil
}

// CreateSummaryExtract stores a summary as a high priority Markdown extract
func (p *Pipeline) CreateSummaryExtract(ctx context.Context, res *model.SummaryResult) (*model.Extract, error) {
	ex := &model.Extract{
		DocumentID: res.DocumentID,
		Content:    SummaryMarkdown(res),
		Context:    fmt.Sprintf("Auto-generated %s summary", res.Level),
		Priority:   summaryExtractPriority,
	}
	if err := p.CreateExtract(ctx, ex); err != nil {
		return nil, err
	}
	return ex, nil
}

// SummaryMarkdown renders a summary with its key concepts and statistics
func SummaryMarkdown(res *model.SummaryResult) string {
	title := res.Title
	if title == "" {
		title = res.DocumentID
	}
	if title == "" {
		title = "document"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Summary of %s\n\n", title)
	b.WriteString(res.Summary)
	b.WriteString("\n\n## Key Concepts\n\n")
	for _, concept := range res.KeyConcepts {
		fmt.Fprintf(&b, "- %s\n", concept)
	}
	fmt.Fprintf(&b, "\n*Summary Level: %s*\n", res.Level)
	fmt.Fprintf(&b, "*Compression Ratio: %.2f*\n", res.CompressionRatio)
	return b.String()
}

// GenerateItems creates learning items of the given type for a stored
// extract. Without useAI only rule-based items are produced.
func (p *Pipeline) GenerateItems(ctx context.Context, extractID string, itemType model.ItemType, limit int, useAI bool) ([]model.LearningItem, error) {
	if limit <= 0 {
		limit = p.maxItems
	}

	var cfg *llm.ProviderConfig
	if useAI {
		cfg = p.provider
	}

	switch itemType {
	case model.ItemQA:
		return p.learning.GenerateQA(ctx, extractID, limit, cfg).Result()
	case model.ItemCloze:
		return p.learning.GenerateCloze(ctx, extractID, limit, cfg).Result()
	}
	return nil, fmt.Errorf("unknown item type %q (supported: qa, cloze)", itemType)
}

// Items lists the learning items stored for an extract
func (p *Pipeline) Items(ctx context.Context, extractID string) ([]model.LearningItem, error) {
	items, err := p.repo.ListLearningItems(ctx, extractID)
	if err != nil {
		return nil, fmt.Errorf("list items for %s: %w", extractID, err)
	}
	return items, nil
}

// SuggestTags suggests tags for a stored extract
func (p *Pipeline) SuggestTags(ctx context.Context, extractID string, k int) ([]string, error) {
	if k <= 0 {
		k = defaultSuggestions
	}
	ex, err := p.GetExtract(ctx, extractID)
	if err != nil {
		return nil, err
	}
	suggestions := p.suggester.Suggest(ex.Content, k)
	if suggestions == nil {
		suggestions = []string{}
	}
	return suggestions, nil
}

// RelatedExtracts ranks the other stored extracts by content similarity
func (p *Pipeline) RelatedExtracts(ctx context.Context, extractID string, k int) ([]tags.Match, error) {
	if k <= 0 {
		k = defaultRelated
	}
	target, err := p.GetExtract(ctx, extractID)
	if err != nil {
		return nil, err
	}

	all, err := p.repo.ListExtracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list extracts: %w", err)
	}

	candidates := make([]tags.Document, 0, len(all))
	for _, ex := range all {
		candidates = append(candidates, tags.Document{ID: ex.ID, Text: ex.Content})
	}

	matches := p.ranker.Rank(tags.Document{ID: target.ID, Text: target.Content}, candidates, k)
	if matches == nil {
		matches = []tags.Match{}
	}
	return matches, nil
}

// Similar ranks documents by content similarity to target, keyed by reference
func (p *Pipeline) Similar(target *source.Document, candidates []*source.Document, k int) []tags.Match {
	docs := make([]tags.Document, 0, len(candidates))
	for _, c := range candidates {
		docs = append(docs, tags.Document{ID: c.Ref, Text: c.Text})
	}
	matches := p.ranker.Rank(tags.Document{ID: target.Ref, Text: target.Text}, docs, k)
	if matches == nil {
		matches = []tags.Match{}
	}
	return matches
}
