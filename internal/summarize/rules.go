package summarize

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ppiankov/distill/internal/extract"
	"github.com/ppiankov/distill/internal/model"
)

const scoringConcepts = 20

var indicatorPhrases = []string{
	"in summary", "to summarize", "in conclusion", "to conclude",
	"importantly", "significantly", "notably", "key", "critical",
	"essential", "crucial", "primary", "main", "major",
}

// KeepRatio is the fraction of sentences the rule-based summarizer keeps
func KeepRatio(level model.SummaryLevel) float64 {
	switch level {
	case model.LevelBrief:
		return 0.15
	case model.LevelMedium:
		return 0.30
	default:
		return 0.50
	}
}

// KeepCount is the number of sentences kept out of n, never less than one
func KeepCount(n int, level model.SummaryLevel) int {
	keep := int(float64(n) * KeepRatio(level))
	if keep < 1 {
		keep = 1
	}
	return keep
}

// RuleBased is an extractive summarizer that scores and keeps whole sentences
type RuleBased struct {
	extractor *extract.ConceptExtractor
}

// NewRuleBased creates a rule-based summarizer
func NewRuleBased(extractor *extract.ConceptExtractor) *RuleBased {
	return &RuleBased{extractor: extractor}
}

// Summarize keeps the highest scoring sentences of text in original order
func (r *RuleBased) Summarize(text string, level model.SummaryLevel) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	ann := r.extractor.Analyze(text)
	sentences := ann.SentenceTexts()
	if len(sentences) == 0 {
		return ""
	}

	var terms []string
	for _, c := range r.extractor.ExtractFrom(ann, text, scoringConcepts) {
		terms = append(terms, strings.ToLower(c.Text))
	}

	scores := make([]float64, len(sentences))
	for i, sentence := range sentences {
		scores[i] = ScoreSentence(sentence, i, len(sentences), terms)
	}

	order := make([]int, len(sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	kept := order[:KeepCount(len(sentences), level)]
	sort.Ints(kept)

	out := make([]string, len(kept))
	for i, idx := range kept {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " ")
}

// ScoreSentence rates a sentence by position, length, concept terms, digits
// and indicator phrases.
func ScoreSentence(sentence string, index, total int, terms []string) float64 {
	score := 0.0

	if index == 0 || index == total-1 {
		score += 0.3
	}

	words := model.WordCount(sentence)
	switch {
	case words < 5:
		score -= 0.2
	case words > 40:
		score -= 0.1
	}

	lower := strings.ToLower(sentence)
	for _, term := range terms {
		if term != "" && strings.Contains(lower, term) {
			score += 0.2
		}
	}

	if strings.IndexFunc(sentence, unicode.IsDigit) >= 0 {
		score += 0.1
	}

	for _, phrase := range indicatorPhrases {
		if strings.Contains(lower, phrase) {
			score += 0.2
		}
	}

	return score
}
