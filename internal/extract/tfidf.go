package extract

import (
	"errors"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptyVocabulary is returned when every document consists of stop words only
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words")

var termPattern = wordPattern

// Vectorizer computes TF-IDF weights over a small corpus.
// Terms are lowercase runs of two or more word characters with stop words
// removed; idf is smoothed (ln((1+n)/(1+df))+1) and rows are l2 normalised.
type Vectorizer struct {
	NGramMax    int // 1 for unigrams, 2 for unigrams and bigrams
	MaxFeatures int // 0 keeps the whole vocabulary
}

// Matrix holds per-document term weights
type Matrix struct {
	Vocabulary []string    // Sorted alphabetically
	Rows       [][]float64 // One row per document, aligned with Vocabulary
	Degenerate bool        // Single-document corpus: idf is constant
}

// Top returns up to k (term, score) pairs of a row with non-zero weight,
// highest first.
func (m *Matrix) Top(row, k int) []TermScore {
	var scored []TermScore
	for j, w := range m.Rows[row] {
		if w > 0 {
			scored = append(scored, TermScore{Term: m.Vocabulary[j], Score: w})
		}
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// TermScore is a weighted term
type TermScore struct {
	Term  string
	Score float64
}

// FitTransform learns the vocabulary of docs and returns their weights
func (v Vectorizer) FitTransform(docs []string) (*Matrix, error) {
	ngramMax := v.NGramMax
	if ngramMax < 1 {
		ngramMax = 1
	}

	counts := make([]map[string]int, len(docs))
	totals := make(map[string]int)
	df := make(map[string]int)

	for i, doc := range docs {
		counts[i] = make(map[string]int)
		for _, term := range analyze(doc, ngramMax) {
			counts[i][term]++
			totals[term]++
		}
		for term := range counts[i] {
			df[term]++
		}
	}

	if len(totals) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocab := make([]string, 0, len(totals))
	for term := range totals {
		vocab = append(vocab, term)
	}

	if v.MaxFeatures > 0 && len(vocab) > v.MaxFeatures {
		sort.Slice(vocab, func(a, b int) bool {
			if totals[vocab[a]] != totals[vocab[b]] {
				return totals[vocab[a]] > totals[vocab[b]]
			}
			return vocab[a] < vocab[b]
		})
		vocab = vocab[:v.MaxFeatures]
	}
	sort.Strings(vocab)

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for j, term := range vocab {
		idf[j] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	rows := make([][]float64, len(docs))
	for i := range docs {
		row := make([]float64, len(vocab))
		for j, term := range vocab {
			row[j] = float64(counts[i][term]) * idf[j]
		}
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
		rows[i] = row
	}

	return &Matrix{Vocabulary: vocab, Rows: rows, Degenerate: len(docs) == 1}, nil
}

// analyze lowercases, tokenizes, drops stop words and emits n-grams
func analyze(doc string, ngramMax int) []string {
	var words []string
	for _, w := range termPattern.FindAllString(strings.ToLower(doc), -1) {
		if len([]rune(w)) < 2 || englishStopWords[w] {
			continue
		}
		words = append(words, w)
	}

	terms := append([]string(nil), words...)
	for n := 2; n <= ngramMax; n++ {
		for i := 0; i+n <= len(words); i++ {
			terms = append(terms, strings.Join(words[i:i+n], " "))
		}
	}
	return terms
}

// Cosine returns the cosine similarity of two equal-length vectors
func Cosine(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
