package model

import "time"

// Extract is a user-curated excerpt of a document; learning items are generated from it
type Extract struct {
	ID          string     `json:"id"`
	DocumentID  string     `json:"document_id,omitempty"`
	Content     string     `json:"content"`
	Context     string     `json:"context,omitempty"`
	Priority    int        `json:"priority"` // 1-100
	Processed   bool       `json:"processed"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// ItemType distinguishes learning item formats
type ItemType string

const (
	ItemQA    ItemType = "qa"
	ItemCloze ItemType = "cloze"
)

// ClozePlaceholder replaces the hidden term in a cloze question
const ClozePlaceholder = "[...]"

// LearningItem is an atomic spaced-repetition card linked to an Extract
type LearningItem struct {
	ID        string    `json:"id"`
	ExtractID string    `json:"extract_id"`
	ItemType  ItemType  `json:"item_type"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Priority  int       `json:"priority"` // 1-100
	CreatedAt time.Time `json:"created_at"`
}

// ClampPriority keeps a priority inside 1-100, defaulting zero to 50
func ClampPriority(p int) int {
	switch {
	case p == 0:
		return 50
	case p < 1:
		return 1
	case p > 100:
		return 100
	}
	return p
}
