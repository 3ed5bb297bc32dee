package extract

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/distill/internal/model"
)

const (
	entityImportance     = 0.8
	nounPhraseImportance = 0.6
	termsPerSentence     = 3
	maxTermFeatures      = 50
)

// ConceptExtractor identifies and ranks salient concepts in text
type ConceptExtractor struct {
	annotator  Annotator
	vectorizer Vectorizer
	logger     *slog.Logger
}

// NewConceptExtractor creates a concept extractor. A nil annotator uses prose.
func NewConceptExtractor(annotator Annotator, logger *slog.Logger) *ConceptExtractor {
	if annotator == nil {
		annotator = NewProseAnnotator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConceptExtractor{
		annotator:  annotator,
		vectorizer: Vectorizer{NGramMax: 2, MaxFeatures: maxTermFeatures},
		logger:     logger,
	}
}

// Analyze annotates text. If the annotator fails, sentences come from the
// regex splitter and no tokens or entities are available.
func (e *ConceptExtractor) Analyze(text string) *Annotation {
	ann, err := e.annotator.Annotate(text)
	if err != nil || ann == nil {
		e.logger.Warn("annotator failed, using regex sentence splitter", "error", err)
		return &Annotation{Sentences: SplitSentences(text), Fallback: true}
	}
	if len(ann.Sentences) == 0 && strings.TrimSpace(text) != "" {
		ann.Sentences = SplitSentences(text)
		ann.Fallback = true
	}
	return ann
}

// Extract returns the top n concepts of text (all of them when n <= 0)
func (e *ConceptExtractor) Extract(text string, n int) []model.Concept {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return e.ExtractFrom(e.Analyze(text), text, n)
}

// ExtractFrom ranks concepts using an existing annotation of text
func (e *ConceptExtractor) ExtractFrom(ann *Annotation, text string, n int) []model.Concept {
	var pool []model.Concept

	for _, ent := range ann.Entities {
		pool = append(pool, model.Concept{
			Text:       ent.Text,
			Kind:       model.ConceptEntity,
			Label:      ent.Label,
			Span:       ent.Span,
			Importance: entityImportance,
		})
	}

	for _, np := range ann.NounPhrases {
		if np.Words < 2 && !np.Proper() {
			continue
		}
		pool = append(pool, model.Concept{
			Text:       np.Text,
			Kind:       model.ConceptNounPhrase,
			Span:       np.Span,
			Importance: nounPhraseImportance,
		})
	}

	pool = append(pool, e.weightedTerms(ann, text)...)

	return Rank(pool, n)
}

// weightedTerms picks the top TF-IDF terms of each sentence
func (e *ConceptExtractor) weightedTerms(ann *Annotation, text string) []model.Concept {
	docs := ann.SentenceTexts()
	if len(docs) < 2 {
		docs = []string{text}
	}

	matrix, err := e.vectorizer.FitTransform(docs)
	if err != nil {
		e.logger.Debug("term weighting skipped", "error", err)
		return nil
	}
	if matrix.Degenerate {
		e.logger.Debug("term weighting over a single document, scores reflect term frequency only")
	}

	// Offsets come from the original text since lower-casing can change byte lengths
	var terms []model.Concept
	for i := range matrix.Rows {
		for _, ts := range matrix.Top(i, termsPerSentence) {
			loc := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(ts.Term)).FindStringIndex(text)
			if loc == nil {
				continue
			}
			span := model.TextSpan{Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]}
			terms = append(terms, model.Concept{
				Text:       ts.Term,
				Kind:       model.ConceptTerm,
				Span:       span,
				Importance: clampUnit(0.5 + ts.Score*0.5),
			})
		}
	}
	return terms
}

// Rank drops case-insensitive duplicates (first occurrence wins), sorts by
// importance descending and truncates to n when n > 0.
func Rank(pool []model.Concept, n int) []model.Concept {
	seen := make(map[string]bool, len(pool))
	unique := make([]model.Concept, 0, len(pool))
	for _, c := range pool {
		key := strings.ToLower(strings.TrimSpace(c.Text))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		c.Importance = clampUnit(c.Importance)
		unique = append(unique, c)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Importance > unique[j].Importance
	})

	if n > 0 && len(unique) > n {
		unique = unique[:n]
	}
	return unique
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
