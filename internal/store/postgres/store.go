// Package postgres is a store.Repository backed by PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ppiankov/distill/internal/model"
	"github.com/ppiankov/distill/internal/store"
)

const foreignKeyViolationCode = "23503"

const extractColumns = `id::text, document_id, content, context, priority, processed, created_at, processed_at`

// Store implements store.Repository on a pgx connection pool
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ store.Repository = (*Store)(nil)

// Open connects to databaseURL and verifies the connection
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(pool, logger), nil
}

// New wraps an existing pool
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger.With("component", "store")}
}

// Close releases the pool
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) CreateExtract(ctx context.Context, e *model.Extract) error {
	if err := store.ValidateExtract(e); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO extracts (id, document_id, content, context, priority, processed, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.DocumentID, e.Content, e.Context, e.Priority, e.Processed, e.CreatedAt, e.ProcessedAt)
	if err != nil {
		s.logger.Error("Failed to create extract", "extract", e.ID, "error", err)
		return fmt.Errorf("create extract: %w", err)
	}

	s.logger.Debug("Extract created", "extract", e.ID)
	return nil
}

func (s *Store) GetExtract(ctx context.Context, id string) (*model.Extract, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrExtractNotFound
	}

	row := s.pool.QueryRow(ctx, `SELECT `+extractColumns+` FROM extracts WHERE id = $1`, id)
	e, err := scanExtract(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrExtractNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get extract: %w", err)
	}
	return e, nil
}

func (s *Store) ListExtracts(ctx context.Context) ([]model.Extract, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+extractColumns+` FROM extracts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list extracts: %w", err)
	}
	defer rows.Close()

	var out []model.Extract
	for rows.Next() {
		e, err := scanExtract(rows)
		if err != nil {
			return nil, fmt.Errorf("scan extract: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list extracts: %w", err)
	}
	return out, nil
}

func (s *Store) CreateLearningItem(ctx context.Context, item *model.LearningItem) error {
	if err := store.ValidateLearningItem(item); err != nil {
		return err
	}
	if _, err := uuid.Parse(item.ExtractID); err != nil {
		return store.ErrExtractNotFound
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO learning_items (id, extract_id, item_type, question, answer, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.ExtractID, string(item.ItemType), item.Question, item.Answer, item.Priority, item.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			return store.ErrExtractNotFound
		}
		s.logger.Error("Failed to create learning item", "extract", item.ExtractID, "error", err)
		return fmt.Errorf("create learning item: %w", err)
	}
	return nil
}

func (s *Store) ListLearningItems(ctx context.Context, extractID string) ([]model.LearningItem, error) {
	if _, err := s.GetExtract(ctx, extractID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id::text, extract_id::text, item_type, question, answer, priority, created_at
		FROM learning_items
		WHERE extract_id = $1
		ORDER BY created_at, id
	`, extractID)
	if err != nil {
		return nil, fmt.Errorf("list learning items: %w", err)
	}
	defer rows.Close()

	out := []model.LearningItem{}
	for rows.Next() {
		var item model.LearningItem
		var itemType string
		if err := rows.Scan(&item.ID, &item.ExtractID, &itemType, &item.Question, &item.Answer, &item.Priority, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan learning item: %w", err)
		}
		item.ItemType = model.ItemType(itemType)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list learning items: %w", err)
	}
	return out, nil
}

func (s *Store) MarkExtractProcessed(ctx context.Context, id string, at time.Time) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrExtractNotFound
	}

	tag, err := s.pool.Exec(ctx, `UPDATE extracts SET processed = TRUE, processed_at = $1 WHERE id = $2`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark extract processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrExtractNotFound
	}
	return nil
}

func scanExtract(row pgx.Row) (*model.Extract, error) {
	var e model.Extract
	if err := row.Scan(&e.ID, &e.DocumentID, &e.Content, &e.Context, &e.Priority, &e.Processed, &e.CreatedAt, &e.ProcessedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
