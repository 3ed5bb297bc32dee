package summarize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/distill/internal/extract"
	"github.com/ppiankov/distill/internal/model"
)

const (
	groupedSectionSize = 2000
	titleMaxChars      = 100
	titleMaxWords      = 12
)

// Header patterns tried in order; the first one producing more than one section wins
var sectionHeaders = []*regexp.Regexp{
	regexp.MustCompile(`\n\s*\d+\.\s+[A-Z][^.\n]+\n`),
	regexp.MustCompile(`\n\s*Section\s+\d+[:.]\s*[A-Z][^.\n]+\n`),
	regexp.MustCompile(`\n\s*[A-Z][A-Z\s]+[A-Z]\n`),
	regexp.MustCompile(`\n\s*(Introduction|Background|Methods|Results|Discussion|Conclusion|References)[:\s]`),
}

var (
	blankLines     = regexp.MustCompile(`\n\s*\n`)
	numericPattern = regexp.MustCompile(`\d+\.\d+|\d+%|\d+\s*\(`)
)

var sectionIndicators = []string{
	"important", "significant", "critical", "key", "main", "essential",
	"conclusion", "result", "finding", "demonstrate", "show", "prove",
	"summary", "therefore", "thus", "in conclusion", "conclude",
}

// KeySections splits text into sections, scores them and returns the limit
// highest scoring ones in document order.
func KeySections(text string, limit int) []model.KeySection {
	if strings.TrimSpace(text) == "" || limit <= 0 {
		return nil
	}

	parts := SplitSections(text)

	sections := make([]model.KeySection, 0, len(parts))
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		title := SectionTitle(part)
		if title == "" {
			title = fmt.Sprintf("Section %d", i+1)
		}
		sections = append(sections, model.KeySection{
			Index:     i,
			Title:     title,
			Content:   part,
			Score:     ScoreSection(part, i, len(parts)),
			WordCount: model.WordCount(part),
		})
	}

	sort.SliceStable(sections, func(a, b int) bool { return sections[a].Score > sections[b].Score })
	if len(sections) > limit {
		sections = sections[:limit]
	}
	sort.SliceStable(sections, func(a, b int) bool { return sections[a].Index < sections[b].Index })

	return sections
}

// SplitSections splits at header lines, keeping each header as the first line
// of its section. Without headers, blank-line paragraphs are grouped into
// sections of roughly two thousand characters.
func SplitSections(text string) []string {
	padded := "\n" + text

	for _, pattern := range sectionHeaders {
		matches := pattern.FindAllStringIndex(padded, -1)
		if len(matches) == 0 {
			continue
		}

		var sections []string
		prev := 0
		for _, m := range matches {
			if part := strings.TrimSpace(padded[prev:m[0]]); part != "" {
				sections = append(sections, part)
			}
			prev = m[0]
		}
		if part := strings.TrimSpace(padded[prev:]); part != "" {
			sections = append(sections, part)
		}

		if len(sections) > 1 {
			return sections
		}
	}

	var sections []string
	var current strings.Builder
	for _, paragraph := range blankLines.Split(text, -1) {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}
		current.WriteString(paragraph)
		current.WriteString("\n\n")

		if current.Len() > groupedSectionSize {
			sections = append(sections, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sections = append(sections, strings.TrimSpace(current.String()))
	}

	if len(sections) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	return sections
}

// ScoreSection rates a section 0-10 by position, length, indicator terms and numeric data
func ScoreSection(section string, position, total int) float64 {
	score := 0.0

	switch {
	case position == 0:
		score += 0.8
	case position == total-1:
		score += 0.7
	default:
		relative := float64(position) / float64(max(1, total-1))
		if relative < 0.2 || relative > 0.8 {
			score += 0.5
		} else {
			score += 0.3
		}
	}

	switch words := model.WordCount(section); {
	case words < 50:
		score += 0.1
	case words < 200:
		score += 0.3
	case words < 500:
		score += 0.5
	default:
		score += 0.4
	}

	lower := strings.ToLower(section)
	for _, indicator := range sectionIndicators {
		if strings.Contains(lower, indicator) {
			score += 0.1
			break
		}
	}

	if numericPattern.MatchString(section) {
		score += 0.2
	}

	return min(10.0, score*2)
}

// SectionTitle picks a short unpunctuated line from the first two lines, or
// a short first sentence. It returns "" when neither fits.
func SectionTitle(section string) string {
	lines := strings.Split(section, "\n")
	if len(lines) > 2 {
		lines = lines[:2]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) < titleMaxChars && !strings.HasSuffix(line, ".") && model.WordCount(line) < titleMaxWords {
			return line
		}
	}

	if spans := extract.SplitSentences(section); len(spans) > 0 && len(spans[0].Text) < titleMaxChars {
		return spans[0].Text
	}
	return ""
}
