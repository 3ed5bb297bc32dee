// Package store persists extracts and the learning items generated from them.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/distill/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("not found")

	// ErrExtractNotFound indicates the referenced extract does not exist
	ErrExtractNotFound = fmt.Errorf("%w: extract", ErrNotFound)

	// ErrInvalidEntity is returned when a record fails validation before being stored
	ErrInvalidEntity = errors.New("invalid entity")
)

// Repository is the persistence collaborator of the distillation core.
// Records are created and read; nothing is ever deleted.
type Repository interface {
	// CreateExtract stores e, filling ID and CreatedAt when empty
	CreateExtract(ctx context.Context, e *model.Extract) error
	GetExtract(ctx context.Context, id string) (*model.Extract, error)
	// ListExtracts returns every extract, oldest first
	ListExtracts(ctx context.Context) ([]model.Extract, error)

	// CreateLearningItem stores item; the referenced extract must exist
	CreateLearningItem(ctx context.Context, item *model.LearningItem) error
	ListLearningItems(ctx context.Context, extractID string) ([]model.LearningItem, error)

	MarkExtractProcessed(ctx context.Context, id string, at time.Time) error
}

// ValidateExtract checks the fields a store requires of an extract
func ValidateExtract(e *model.Extract) error {
	if e == nil {
		return fmt.Errorf("%w: nil extract", ErrInvalidEntity)
	}
	if e.Content == "" {
		return fmt.Errorf("%w: extract content is empty", ErrInvalidEntity)
	}
	if e.Priority < 1 || e.Priority > 100 {
		return fmt.Errorf("%w: extract priority %d outside 1-100", ErrInvalidEntity, e.Priority)
	}
	return nil
}

// ValidateLearningItem checks the fields a store requires of a learning item
func ValidateLearningItem(item *model.LearningItem) error {
	if item == nil {
		return fmt.Errorf("%w: nil learning item", ErrInvalidEntity)
	}
	if item.ExtractID == "" {
		return fmt.Errorf("%w: learning item has no extract", ErrInvalidEntity)
	}
	if item.ItemType != model.ItemQA && item.ItemType != model.ItemCloze {
		return fmt.Errorf("%w: unknown item type %q", ErrInvalidEntity, item.ItemType)
	}
	if item.Question == "" || item.Answer == "" {
		return fmt.Errorf("%w: learning item needs a question and an answer", ErrInvalidEntity)
	}
	if item.Priority < 1 || item.Priority > 100 {
		return fmt.Errorf("%w: learning item priority %d outside 1-100", ErrInvalidEntity, item.Priority)
	}
	return nil
}
