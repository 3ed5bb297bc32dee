package extract

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestVectorizer_FitTransform_Weights(t *testing.T) {
	v := Vectorizer{NGramMax: 1}

	m, err := v.FitTransform([]string{"The cat sat", "The dog sat"})
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	want := []string{"cat", "dog", "sat"}
	if len(m.Vocabulary) != len(want) {
		t.Fatalf("Expected vocabulary %v, got %v", want, m.Vocabulary)
	}
	for i, term := range want {
		if m.Vocabulary[i] != term {
			t.Errorf("Vocabulary[%d] = %q, want %q", i, m.Vocabulary[i], term)
		}
	}

	row := m.Rows[0]
	if row[1] != 0 {
		t.Errorf("Expected zero weight for 'dog' in first document, got %f", row[1])
	}
	if row[0] <= row[2] {
		t.Errorf("Expected rarer 'cat' (%f) to outweigh shared 'sat' (%f)", row[0], row[2])
	}
	if norm := floats.Norm(row, 2); math.Abs(norm-1) > 1e-9 {
		t.Errorf("Expected l2-normalised row, got norm %f", norm)
	}

	// idf(cat) = ln(3/2)+1, idf(sat) = 1
	ratio := row[0] / row[2]
	if math.Abs(ratio-(math.Log(1.5)+1)) > 1e-9 {
		t.Errorf("Unexpected idf ratio %f", ratio)
	}
	if m.Degenerate {
		t.Error("Two-document corpus should not be degenerate")
	}
}

func TestVectorizer_FitTransform_Bigrams(t *testing.T) {
	v := Vectorizer{NGramMax: 2}

	m, err := v.FitTransform([]string{"machine learning models"})
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	found := map[string]bool{}
	for _, term := range m.Vocabulary {
		found[term] = true
	}
	for _, term := range []string{"machine", "learning", "models", "machine learning", "learning models"} {
		if !found[term] {
			t.Errorf("Expected term %q in vocabulary %v", term, m.Vocabulary)
		}
	}
	if !m.Degenerate {
		t.Error("Single-document corpus should be flagged degenerate")
	}
}

func TestVectorizer_FitTransform_MaxFeatures(t *testing.T) {
	v := Vectorizer{NGramMax: 1, MaxFeatures: 2}

	m, err := v.FitTransform([]string{"alpha alpha alpha beta beta gamma"})
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	if len(m.Vocabulary) != 2 || m.Vocabulary[0] != "alpha" || m.Vocabulary[1] != "beta" {
		t.Errorf("Expected the two most frequent terms, got %v", m.Vocabulary)
	}
}

func TestVectorizer_FitTransform_OnlyStopWords(t *testing.T) {
	_, err := Vectorizer{}.FitTransform([]string{"the and of", "a an"})
	if !errors.Is(err, ErrEmptyVocabulary) {
		t.Errorf("Expected ErrEmptyVocabulary, got %v", err)
	}
}

func TestMatrix_Top(t *testing.T) {
	m := &Matrix{
		Vocabulary: []string{"a", "b", "c", "d"},
		Rows:       [][]float64{{0.1, 0.0, 0.7, 0.5}},
	}

	top := m.Top(0, 2)
	if len(top) != 2 {
		t.Fatalf("Expected 2 terms, got %d", len(top))
	}
	if top[0].Term != "c" || top[1].Term != "d" {
		t.Errorf("Unexpected order: %+v", top)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2}, []float64{1, 2}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %f, want %f", got, tt.want)
			}
		})
	}
}
