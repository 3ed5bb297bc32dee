package tags

import (
	"sort"
	"strings"

	"github.com/ppiankov/distill/internal/extract"
)

const previewChars = 100

// Document is a text taking part in similarity ranking
type Document struct {
	ID   string
	Text string
}

// Match is a document similar to the ranking target
type Match struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview"`
}

// Ranker orders documents by TF-IDF cosine similarity to a target
type Ranker struct {
	vectorizer extract.Vectorizer
}

// NewRanker creates a similarity ranker over unigram TF-IDF vectors
func NewRanker() *Ranker {
	return &Ranker{vectorizer: extract.Vectorizer{NGramMax: 1}}
}

// Rank returns up to k candidates most similar to target. The target itself
// and candidates sharing no terms with it are left out.
func (r *Ranker) Rank(target Document, candidates []Document, k int) []Match {
	if strings.TrimSpace(target.Text) == "" || k <= 0 {
		return nil
	}

	docs := []string{target.Text}
	var kept []Document
	for _, c := range candidates {
		if c.ID == target.ID || strings.TrimSpace(c.Text) == "" {
			continue
		}
		docs = append(docs, c.Text)
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return nil
	}

	matrix, err := r.vectorizer.FitTransform(docs)
	if err != nil {
		return nil
	}

	var matches []Match
	for i, c := range kept {
		score := extract.Cosine(matrix.Rows[0], matrix.Rows[i+1])
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{ID: c.ID, Score: score, Preview: Preview(c.Text)})
	}

	sort.SliceStable(matches, func(a, b int) bool { return matches[a].Score > matches[b].Score })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Preview shortens text to a hundred characters, marking truncation
func Preview(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= previewChars {
		return text
	}
	return string(runes[:previewChars]) + "..."
}
