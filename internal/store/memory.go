package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/distill/internal/model"
)

// Memory is an in-process Repository. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	extracts map[string]*model.Extract
	order    []string
	items    map[string][]model.LearningItem
	now      func() time.Time
}

var _ Repository = (*Memory)(nil)

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{
		extracts: make(map[string]*model.Extract),
		items:    make(map[string][]model.LearningItem),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) CreateExtract(ctx context.Context, e *model.Extract) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateExtract(e); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.now()
	}

	stored := *e
	if _, exists := m.extracts[e.ID]; !exists {
		m.order = append(m.order, e.ID)
	}
	m.extracts[e.ID] = &stored
	return nil
}

func (m *Memory) GetExtract(ctx context.Context, id string) (*model.Extract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.extracts[id]
	if !ok {
		return nil, ErrExtractNotFound
	}
	out := *e
	return &out, nil
}

func (m *Memory) ListExtracts(ctx context.Context) ([]model.Extract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Extract, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.extracts[id])
	}
	return out, nil
}

func (m *Memory) CreateLearningItem(ctx context.Context, item *model.LearningItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateLearningItem(item); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.extracts[item.ExtractID]; !ok {
		return ErrExtractNotFound
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = m.now()
	}
	m.items[item.ExtractID] = append(m.items[item.ExtractID], *item)
	return nil
}

func (m *Memory) ListLearningItems(ctx context.Context, extractID string) ([]model.LearningItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.extracts[extractID]; !ok {
		return nil, ErrExtractNotFound
	}
	return append([]model.LearningItem{}, m.items[extractID]...), nil
}

func (m *Memory) MarkExtractProcessed(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.extracts[id]
	if !ok {
		return ErrExtractNotFound
	}
	at = at.UTC()
	e.Processed = true
	e.ProcessedAt = &at
	return nil
}
