package extract

import "testing"

func TestSplitSentences(t *testing.T) {
	text := "Hello world. How are you?\n\nFine!  Trailing fragment"

	sentences := SplitSentences(text)
	want := []string{"Hello world.", "How are you?", "Fine!", "Trailing fragment"}

	if len(sentences) != len(want) {
		t.Fatalf("Expected %d sentences, got %d: %+v", len(want), len(sentences), sentences)
	}
	for i, s := range sentences {
		if s.Text != want[i] {
			t.Errorf("Sentence %d = %q, want %q", i, s.Text, want[i])
		}
		if text[s.Start:s.End] != s.Text {
			t.Errorf("Sentence %d offsets [%d:%d] do not match text", i, s.Start, s.End)
		}
	}
}

func TestSplitSentences_KeepsInlinePeriods(t *testing.T) {
	sentences := SplitSentences("Version 2.5 shipped today. It works.")
	if len(sentences) != 2 {
		t.Errorf("Expected 2 sentences, got %d: %+v", len(sentences), sentences)
	}
}

func TestEndsWithTerminal(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Done.", true},
		{"Really?", true},
		{`He said "stop!"`, true},
		{"INTRODUCTION", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := EndsWithTerminal(tt.in); got != tt.want {
			t.Errorf("EndsWithTerminal(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
