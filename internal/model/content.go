package model

import (
	"fmt"
	"strings"
)

// TextSpan locates a piece of text inside its source content (byte offsets)
type TextSpan struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ConceptKind classifies where a concept came from
type ConceptKind string

const (
	ConceptEntity     ConceptKind = "ENTITY"      // Named entity (person, place, organisation)
	ConceptNounPhrase ConceptKind = "NOUN_PHRASE" // Multi-word noun phrase or proper noun
	ConceptTerm       ConceptKind = "TERM"        // Statistically weighted term (TF-IDF)
)

// Concept is a salient term, phrase or entity found in a text
type Concept struct {
	Text       string      `json:"text"`
	Kind       ConceptKind `json:"kind"`
	Label      string      `json:"label,omitempty"` // Entity class for ENTITY concepts
	Span       TextSpan    `json:"span"`
	Importance float64     `json:"importance"` // 0.0-1.0
}

// ConceptTexts returns the text of each concept, preserving order
func ConceptTexts(concepts []Concept) []string {
	texts := make([]string, len(concepts))
	for i, c := range concepts {
		texts[i] = c.Text
	}
	return texts
}

// Paragraph is a run of sentences the segmenter grouped together
type Paragraph struct {
	Text      string   `json:"text"`
	Sentences []string `json:"sentences"`
	Span      TextSpan `json:"span"`
}

// Section is a titled group of paragraphs with an importance score
type Section struct {
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	Paragraphs []Paragraph `json:"paragraphs"`
	Headered   bool        `json:"headered"`   // False for the implicit leading section
	Priority   float64     `json:"priority"`   // 0-100
	Importance float64     `json:"importance"` // 0-10
	Concepts   []Concept   `json:"concepts,omitempty"`
	WordCount  int         `json:"word_count"`
}

// KeySection is a scored excerpt picked from a longer document
type KeySection struct {
	Index     int     `json:"index"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"` // 0-10
	WordCount int     `json:"word_count"`
}

// Chunk is a contiguous, paragraph-aligned slice of source content
type Chunk struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// SummaryLevel controls summary granularity
type SummaryLevel string

const (
	LevelBrief    SummaryLevel = "brief"
	LevelMedium   SummaryLevel = "medium"
	LevelDetailed SummaryLevel = "detailed"
)

// Levels lists the summary levels from most to least condensed
var Levels = []SummaryLevel{LevelBrief, LevelMedium, LevelDetailed}

// ParseLevel converts a user supplied level name
func ParseLevel(s string) (SummaryLevel, error) {
	switch SummaryLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LevelBrief:
		return LevelBrief, nil
	case LevelMedium, "":
		return LevelMedium, nil
	case LevelDetailed:
		return LevelDetailed, nil
	default:
		return "", fmt.Errorf("unknown summary level %q (supported: brief, medium, detailed)", s)
	}
}

// SummaryResult is the outcome of summarizing one document
type SummaryResult struct {
	DocumentID       string       `json:"document_id,omitempty"`
	Title            string       `json:"title,omitempty"`
	Level            SummaryLevel `json:"level"`
	Summary          string       `json:"summary"`
	KeyConcepts      []string     `json:"key_concepts"`
	ChunkCount       int          `json:"chunk_count"`
	WordCount        int          `json:"word_count"`
	SummaryWordCount int          `json:"summary_word_count"`
	CompressionRatio float64      `json:"compression_ratio"`
	UsedAI           bool         `json:"used_ai"`
	Provider         string       `json:"provider,omitempty"`
	Model            string       `json:"model,omitempty"`
}

// WordCount counts whitespace separated words
func WordCount(s string) int {
	return len(strings.Fields(s))
}
