package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/distill/internal/pipeline"
	"github.com/ppiankov/distill/internal/store"
	"github.com/ppiankov/distill/internal/store/postgres"
)

// openRepository connects to Postgres when database.url is set and falls
// back to an in-process store otherwise
func openRepository(ctx context.Context) (store.Repository, func(), error) {
	if settings.Database.URL == "" {
		logger.Debug("No database configured, extracts are kept in memory")
		return store.NewMemory(), func() {}, nil
	}

	pg, err := postgres.Open(ctx, settings.Database.URL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return pg, pg.Close, nil
}

// newPipeline builds the pipeline with its repository; call the returned
// func when done
func newPipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	repo, closeRepo, err := openRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	p, err := pipeline.NewPipeline(settings, repo, logger)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}
	return p, closeRepo, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
