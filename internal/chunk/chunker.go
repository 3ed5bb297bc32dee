package chunk

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/distill/internal/model"
)

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// MaxSize returns the chunk budget in characters for a summary level
func MaxSize(level model.SummaryLevel) int {
	switch level {
	case model.LevelBrief:
		return 10000
	case model.LevelMedium:
		return 5000
	default:
		return 3000
	}
}

// Split partitions content into paragraph-aligned chunks sized for level
func Split(content string, level model.SummaryLevel) []model.Chunk {
	return SplitSize(content, MaxSize(level))
}

// SplitSize greedily packs paragraphs into chunks of at most maxSize
// characters. A paragraph larger than maxSize becomes a chunk on its own;
// paragraphs are never split. Chunk text is sliced from content, so
// separators inside a chunk are preserved verbatim.
func SplitSize(content string, maxSize int) []model.Chunk {
	var chunks []model.Chunk

	paragraphs := paragraphSpans(content)
	if len(paragraphs) == 0 {
		return chunks
	}

	start, end := -1, -1
	for _, p := range paragraphs {
		if start < 0 {
			start, end = p[0], p[1]
			continue
		}

		current := utf8.RuneCountInString(content[start:end])
		next := utf8.RuneCountInString(content[p[0]:p[1]])
		if current+next > maxSize {
			chunks = append(chunks, model.Chunk{Text: content[start:end], Start: start, End: end})
			start = p[0]
		}
		end = p[1]
	}
	chunks = append(chunks, model.Chunk{Text: content[start:end], Start: start, End: end})

	return chunks
}

// paragraphSpans returns [start, end) offsets of non-blank paragraphs
func paragraphSpans(content string) [][2]int {
	var spans [][2]int
	prev := 0
	add := func(from, to int) {
		if strings.TrimSpace(content[from:to]) != "" {
			spans = append(spans, [2]int{from, to})
		}
	}
	for _, loc := range paragraphBreak.FindAllStringIndex(content, -1) {
		add(prev, loc[0])
		prev = loc[1]
	}
	add(prev, len(content))
	return spans
}
