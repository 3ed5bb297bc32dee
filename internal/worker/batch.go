package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/distill/internal/model"
)

// Summarizer summarizes the document behind a reference (path, URL or "-")
type Summarizer interface {
	SummarizeRef(ctx context.Context, ref string) (*model.SummaryResult, error)
}

// SummaryJob summarizes one document
type SummaryJob struct {
	Ref        string
	Summarizer Summarizer
}

// Execute executes the summary job
func (j *SummaryJob) Execute(ctx context.Context) Result {
	summary, err := j.Summarizer.SummarizeRef(ctx, j.Ref)
	return &DocumentResult{
		Ref:     j.Ref,
		Summary: summary,
		Error:   err,
	}
}

// DocumentResult is the outcome of summarizing one document
type DocumentResult struct {
	Ref     string
	Summary *model.SummaryResult
	Error   error
}

// GetError returns the error from the document result
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor summarizes many documents concurrently
type BatchProcessor struct {
	summarizer  Summarizer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(summarizer Summarizer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		summarizer:  summarizer,
		concurrency: concurrency,
	}
}

// ProcessRefs summarizes every reference. Results follow the input order;
// documents skipped after cancellation carry the context error.
func (b *BatchProcessor) ProcessRefs(ctx context.Context, refs []string) []*DocumentResult {
	if len(refs) == 0 {
		return []*DocumentResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, ref := range refs {
		pool.Submit(&SummaryJob{
			Ref:        ref,
			Summarizer: b.summarizer,
		})
	}

	results := pool.Wait()

	docs := make([]*DocumentResult, len(refs))
	for i, ref := range refs {
		if res, ok := results[i].(*DocumentResult); ok && res != nil {
			docs[i] = res
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		docs[i] = &DocumentResult{Ref: ref, Error: err}
	}

	return docs
}

// ProcessFile reads references from a file and summarizes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*DocumentResult, error) {
	refs, err := ReadRefsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read references: %w", err)
	}

	return b.ProcessRefs(ctx, refs), nil
}

// ReadRefsFromFile reads document references from a file (one per line)
func ReadRefsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var refs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			refs = append(refs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return refs, nil
}
