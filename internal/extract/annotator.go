package extract

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
	"github.com/ppiankov/distill/internal/model"
)

// Token is a word with its part-of-speech tag (Penn Treebank)
type Token struct {
	Text  string
	Tag   string
	Start int // -1 when the token could not be located in the source
	End   int
}

// Entity is a named entity recognised in the text
type Entity struct {
	Text  string
	Label string
	Span  model.TextSpan
}

// Phrase is a noun chunk; Root is the tag of its head noun
type Phrase struct {
	Text  string
	Root  string
	Words int
	Span  model.TextSpan
}

// Proper reports whether the phrase is headed by a proper noun
func (p Phrase) Proper() bool {
	return p.Root == "NNP" || p.Root == "NNPS"
}

// Annotation is the linguistic analysis of one text
type Annotation struct {
	Sentences   []model.TextSpan
	Tokens      []Token
	Entities    []Entity
	NounPhrases []Phrase
	Fallback    bool // Sentences came from the regex splitter
}

// SentenceTexts returns the text of each sentence
func (a *Annotation) SentenceTexts() []string {
	out := make([]string, len(a.Sentences))
	for i, s := range a.Sentences {
		out[i] = s.Text
	}
	return out
}

// Annotator produces sentences, tagged tokens, entities and noun phrases
type Annotator interface {
	Annotate(text string) (*Annotation, error)
}

// ProseAnnotator annotates text with the prose NLP models
type ProseAnnotator struct{}

// NewProseAnnotator creates an annotator backed by prose
func NewProseAnnotator() *ProseAnnotator {
	return &ProseAnnotator{}
}

// Annotate runs tokenization, tagging, sentence segmentation and NER
func (p *ProseAnnotator) Annotate(text string) (*Annotation, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("prose document: %w", err)
	}

	ann := &Annotation{}

	cursor := 0
	for _, s := range doc.Sentences() {
		span, next, ok := locate(text, s.Text, cursor)
		if !ok {
			continue
		}
		cursor = next
		ann.Sentences = append(ann.Sentences, span)
	}

	cursor = 0
	for _, tok := range doc.Tokens() {
		t := Token{Text: tok.Text, Tag: tok.Tag, Start: -1, End: -1}
		if span, next, ok := locate(text, tok.Text, cursor); ok {
			t.Start, t.End = span.Start, span.End
			cursor = next
		}
		ann.Tokens = append(ann.Tokens, t)
	}

	cursor = 0
	for _, ent := range doc.Entities() {
		span, next, ok := locate(text, ent.Text, cursor)
		if !ok {
			continue
		}
		cursor = next
		ann.Entities = append(ann.Entities, Entity{Text: ent.Text, Label: ent.Label, Span: span})
	}

	ann.NounPhrases = NounPhrases(text, ann.Tokens)
	return ann, nil
}

// BasicAnnotator is a model-free annotator: regex sentences, word tokens and
// capitalisation-based proper noun detection. No named entities are produced.
type BasicAnnotator struct{}

// Annotate splits and tags text using heuristics only
func (BasicAnnotator) Annotate(text string) (*Annotation, error) {
	ann := &Annotation{Sentences: SplitSentences(text)}

	for _, sent := range ann.Sentences {
		locs := wordPattern.FindAllStringIndex(sent.Text, -1)
		for i, loc := range locs {
			word := sent.Text[loc[0]:loc[1]]
			ann.Tokens = append(ann.Tokens, Token{
				Text:  word,
				Tag:   basicTag(word, i == 0),
				Start: sent.Start + loc[0],
				End:   sent.Start + loc[1],
			})
		}
	}

	// Without a tagger only capitalised runs are trustworthy phrases
	var proper []Token
	for _, tok := range ann.Tokens {
		if tok.Tag == "NNP" {
			proper = append(proper, tok)
			continue
		}
		proper = append(proper, Token{Text: tok.Text, Tag: "X", Start: tok.Start, End: tok.End})
	}
	ann.NounPhrases = NounPhrases(text, proper)
	return ann, nil
}

func basicTag(word string, sentenceStart bool) string {
	lower := strings.ToLower(word)
	switch {
	case isDeterminer(lower):
		return "DT"
	case englishStopWords[lower]:
		return "IN"
	case strings.IndexFunc(word, unicode.IsDigit) >= 0:
		return "CD"
	case !sentenceStart && unicode.IsUpper(firstRune(word)):
		return "NNP"
	default:
		return "NN"
	}
}

// NounPhrases groups adjective/noun runs ending in a noun into phrases.
// Leading determiners are not part of the phrase.
func NounPhrases(text string, tokens []Token) []Phrase {
	var phrases []Phrase
	var run []Token

	flush := func() {
		// Trim trailing modifiers so the phrase ends on its head noun
		for len(run) > 0 && !isNounTag(run[len(run)-1].Tag) {
			run = run[:len(run)-1]
		}
		if len(run) > 0 {
			phrases = append(phrases, buildPhrase(text, run))
		}
		run = nil
	}

	for _, tok := range tokens {
		if tok.Start < 0 {
			flush()
			continue
		}
		if len(run) > 0 && !sameLineGap(text, run[len(run)-1].End, tok.Start) {
			flush()
		}
		if isNounTag(tok.Tag) || isModifierTag(tok.Tag) {
			run = append(run, tok)
			continue
		}
		flush()
	}
	flush()

	return phrases
}

func buildPhrase(text string, run []Token) Phrase {
	first, last := run[0], run[len(run)-1]
	return Phrase{
		Text:  text[first.Start:last.End],
		Root:  last.Tag,
		Words: len(run),
		Span:  model.TextSpan{Text: text[first.Start:last.End], Start: first.Start, End: last.End},
	}
}

func isNounTag(tag string) bool {
	return tag == "NN" || tag == "NNS" || tag == "NNP" || tag == "NNPS"
}

func isModifierTag(tag string) bool {
	return tag == "JJ" || tag == "JJR" || tag == "JJS"
}

func isDeterminer(lower string) bool {
	switch lower {
	case "a", "an", "the", "this", "that", "these", "those", "my", "your",
		"his", "her", "its", "our", "their", "some", "any", "each", "every":
		return true
	}
	return false
}

// locate finds needle in text at or after cursor, falling back to a search
// from the beginning.
func locate(text, needle string, cursor int) (model.TextSpan, int, bool) {
	if needle == "" {
		return model.TextSpan{}, cursor, false
	}
	if cursor > len(text) {
		cursor = len(text)
	}
	if idx := strings.Index(text[cursor:], needle); idx >= 0 {
		start := cursor + idx
		return model.TextSpan{Text: needle, Start: start, End: start + len(needle)}, start + len(needle), true
	}
	if idx := strings.Index(text, needle); idx >= 0 {
		return model.TextSpan{Text: needle, Start: idx, End: idx + len(needle)}, cursor, true
	}
	return model.TextSpan{}, cursor, false
}

// sameLineGap reports whether text[from:to] is blank and has no line break,
// so a header never joins the first words of the next paragraph
func sameLineGap(text string, from, to int) bool {
	if from > to || to > len(text) {
		return false
	}
	gap := text[from:to]
	return strings.TrimSpace(gap) == "" && !strings.ContainsAny(gap, "\n\r")
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
