package segment

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/distill/internal/extract"
	"github.com/ppiankov/distill/internal/model"
)

const (
	// DefaultTitle names the section that collects paragraphs preceding any header
	DefaultTitle = "Introduction"

	headerMaxChars    = 100
	headerMaxWords    = 10
	headeredBase      = 70.0
	implicitBase      = 50.0
	scoringConcepts   = 3
	conceptMultiplier = 20.0
)

var (
	numberedHeader = regexp.MustCompile(`^\d+\.\s+\w+`)
	blankLine      = regexp.MustCompile(`\n\s*\n`)
)

// Segmenter groups sentences into paragraphs and paragraphs into scored sections
type Segmenter struct {
	extractor *extract.ConceptExtractor
}

// New creates a segmenter that scores sections with the given extractor
func New(extractor *extract.ConceptExtractor) *Segmenter {
	return &Segmenter{extractor: extractor}
}

// Segment splits text into titled sections
func (s *Segmenter) Segment(text string) []model.Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	ann := s.extractor.Analyze(text)
	return s.Sections(s.Paragraphs(text, ann.Sentences))
}

// Paragraphs groups sentences. A paragraph ends after a sentence with
// terminal punctuation when it is the last one, or the next sentence starts
// upper-case after more than a single separating character. A blank line
// always ends a paragraph.
func (s *Segmenter) Paragraphs(text string, sentences []model.TextSpan) []model.Paragraph {
	sentences = splitOnBlankLines(sentences)

	var paragraphs []model.Paragraph
	var current []model.TextSpan

	flush := func() {
		if len(current) == 0 {
			return
		}
		texts := make([]string, len(current))
		for i, sent := range current {
			texts[i] = sent.Text
		}
		joined := strings.Join(texts, " ")
		paragraphs = append(paragraphs, model.Paragraph{
			Text:      joined,
			Sentences: texts,
			Span:      model.TextSpan{Text: joined, Start: current[0].Start, End: current[len(current)-1].End},
		})
		current = nil
	}

	for i, sent := range sentences {
		current = append(current, sent)

		if i == len(sentences)-1 {
			flush()
			break
		}
		next := sentences[i+1]

		if blankLine.MatchString(gap(text, sent.End, next.Start)) {
			flush()
			continue
		}
		if extract.EndsWithTerminal(sent.Text) && startsUpper(next.Text) && sent.End < next.Start-1 {
			flush()
		}
	}

	return paragraphs
}

// Sections attaches paragraphs to the most recent header and scores each section
func (s *Segmenter) Sections(paragraphs []model.Paragraph) []model.Section {
	var sections []model.Section
	var current *model.Section

	finish := func() {
		if current == nil {
			return
		}
		sections = append(sections, s.score(*current))
		current = nil
	}

	for _, p := range paragraphs {
		if IsHeader(p.Text) {
			finish()
			current = &model.Section{Title: p.Text, Content: p.Text, Headered: true}
			continue
		}

		if current == nil {
			current = &model.Section{Title: DefaultTitle}
		}
		current.Paragraphs = append(current.Paragraphs, p)
		if current.Content == "" {
			current.Content = p.Text
		} else {
			current.Content += "\n\n" + p.Text
		}
	}
	finish()

	return sections
}

// score sets priority (0-100) and importance (0-10) from the section's top concepts
func (s *Segmenter) score(section model.Section) model.Section {
	base := implicitBase
	if section.Headered {
		base = headeredBase
	}

	section.Concepts = s.extractor.Extract(section.Content, scoringConcepts)

	avg := 0.0
	if len(section.Concepts) > 0 {
		for _, c := range section.Concepts {
			avg += c.Importance
		}
		avg /= float64(len(section.Concepts))
	}

	section.Priority = math.Min(100, base+avg*conceptMultiplier)
	section.Importance = section.Priority / 10
	section.WordCount = model.WordCount(section.Content)
	return section
}

// IsHeader reports whether a paragraph looks like a section header
func IsHeader(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) >= headerMaxChars {
		return false
	}
	if isUpper(text) {
		return true
	}
	if !extract.EndsWithTerminal(text) && model.WordCount(text) < headerMaxWords {
		return true
	}
	return numberedHeader.MatchString(text)
}

// isUpper is true when text has cased letters and all of them are upper-case
func isUpper(text string) bool {
	cased := false
	for _, r := range text {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func startsUpper(text string) bool {
	for _, r := range text {
		return unicode.IsUpper(r)
	}
	return false
}

func gap(text string, from, to int) string {
	if from < 0 || to > len(text) || from >= to {
		return ""
	}
	return text[from:to]
}

// splitOnBlankLines breaks sentences that span a blank line, which happens
// when an unpunctuated header is followed by body text.
func splitOnBlankLines(sentences []model.TextSpan) []model.TextSpan {
	var out []model.TextSpan
	for _, sent := range sentences {
		locs := blankLine.FindAllStringIndex(sent.Text, -1)
		if len(locs) == 0 {
			out = append(out, sent)
			continue
		}
		prev := 0
		for _, loc := range append(locs, []int{len(sent.Text), len(sent.Text)}) {
			part := sent.Text[prev:loc[0]]
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				start := sent.Start + prev + strings.Index(part, trimmed)
				out = append(out, model.TextSpan{Text: trimmed, Start: start, End: start + len(trimmed)})
			}
			prev = loc[1]
		}
	}
	return out
}
