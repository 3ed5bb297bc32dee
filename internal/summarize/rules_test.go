package summarize

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/ppiankov/distill/internal/extract"
	"github.com/ppiankov/distill/internal/model"
)

func newTestRules() *RuleBased {
	return NewRuleBased(extract.NewConceptExtractor(extract.BasicAnnotator{}, nil))
}

func numberedDocument(n int) string {
	sentences := make([]string, n)
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Sentence number %s describes one more property of living cells.", words[i%len(words)])
	}
	return strings.Join(sentences, " ")
}

var words = []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}

func TestKeepCount(t *testing.T) {
	tests := []struct {
		n     int
		level model.SummaryLevel
		want  int
	}{
		{20, model.LevelBrief, 3},
		{20, model.LevelMedium, 6},
		{20, model.LevelDetailed, 10},
		{3, model.LevelBrief, 1},
		{1, model.LevelDetailed, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%s", tt.n, tt.level), func(t *testing.T) {
			if got := KeepCount(tt.n, tt.level); got != tt.want {
				t.Errorf("KeepCount(%d, %s) = %d, want %d", tt.n, tt.level, got, tt.want)
			}
		})
	}
}

func TestRuleBased_Summarize_KeepRatioMonotonic(t *testing.T) {
	r := newTestRules()
	text := numberedDocument(20)

	counts := make(map[model.SummaryLevel]int)
	for _, level := range model.Levels {
		summary := r.Summarize(text, level)
		counts[level] = len(extract.SplitSentences(summary))
	}

	if counts[model.LevelBrief] != 3 || counts[model.LevelMedium] != 6 || counts[model.LevelDetailed] != 10 {
		t.Errorf("unexpected sentence counts: %v", counts)
	}
}

func TestRuleBased_Summarize_PreservesOrder(t *testing.T) {
	r := newTestRules()
	text := numberedDocument(10)

	summary := r.Summarize(text, model.LevelDetailed)

	last := -1
	for _, span := range extract.SplitSentences(summary) {
		pos := strings.Index(text, span.Text)
		if pos < 0 {
			t.Fatalf("summary sentence %q not found in source", span.Text)
		}
		if pos <= last {
			t.Errorf("sentence %q out of document order", span.Text)
		}
		last = pos
	}
}

func TestRuleBased_Summarize_Blank(t *testing.T) {
	if got := newTestRules().Summarize("  \n\t", model.LevelMedium); got != "" {
		t.Errorf("expected empty summary, got %q", got)
	}
}

func TestRuleBased_Summarize_KeepsAtLeastOneSentence(t *testing.T) {
	got := newTestRules().Summarize("Only one sentence here about cells.", model.LevelBrief)
	if got != "Only one sentence here about cells." {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestScoreSentence(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		index    int
		total    int
		terms    []string
		want     float64
	}{
		{"short middle", "Short one.", 1, 3, nil, -0.2},
		{"first sentence", "Cells are the basic structural unit of life.", 0, 3, nil, 0.3},
		{"indicators and digit", "In conclusion the main result was 42 percent of all measured samples.", 1, 3, nil, 0.5},
		{"concept terms", "The nucleus holds the genetic material of the cell.", 1, 3, []string{"nucleus", "genetic material", "ribosome"}, 0.4},
		{"long sentence", strings.Repeat("word ", 45) + "end.", 1, 3, nil, -0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreSentence(tt.sentence, tt.index, tt.total, tt.terms)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ScoreSentence() = %v, want %v", got, tt.want)
			}
		})
	}
}
