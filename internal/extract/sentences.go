package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/distill/internal/model"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// SplitSentences splits text after '.', '!' or '?' followed by whitespace.
// It is the fallback used when the annotator is unavailable.
func SplitSentences(text string) []model.TextSpan {
	var sentences []model.TextSpan
	start := 0

	emit := func(end int) {
		raw := text[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return
		}
		offset := start + strings.Index(raw, trimmed)
		sentences = append(sentences, model.TextSpan{
			Text:  trimmed,
			Start: offset,
			End:   offset + len(trimmed),
		})
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < len(text) && isSpaceByte(text[i+1]) {
			emit(i + 1)
			start = i + 1
		}
	}
	if start < len(text) {
		emit(len(text))
	}

	return sentences
}

// EndsWithTerminal reports whether s ends in sentence punctuation
func EndsWithTerminal(s string) bool {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	s = strings.TrimRight(s, `"')]”’`)
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
