package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ppiankov/distill/internal/pipeline"
	"github.com/ppiankov/distill/internal/source"
	"github.com/ppiankov/distill/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Summarize multiple documents from a file in parallel",
	Long: `Batch summarizes many documents concurrently:
- Read document references from the input file (one per line, # comments)
- Summarize documents in parallel with a configurable worker count
- Write a Markdown and a JSON summary for each document

Example:
  distill batch reading-list.txt
  distill batch reading-list.txt --concurrency 8 --output-dir ./summaries
  distill batch reading-list.txt --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./distill-summaries", "output directory for summaries")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Distill Batch Summarization\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, closeRepo, err := newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	processor := worker.NewBatchProcessor(p, concurrency)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	used := make(map[string]int)

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.Ref, result.Error)
			continue
		}

		slug := uniqueSlug(used, sanitizeFilename(summaryName(result.Ref, result.Summary.Title)))
		if err := writeSummary(filepath.Join(outputDir, slug), result); err != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.Ref, err)
			continue
		}

		successCount++
		fmt.Fprintf(stderr, "✓ %s (%d -> %d words)\n", result.Ref, result.Summary.WordCount, result.Summary.SummaryWordCount)
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d documents\n", len(results))
	fmt.Fprintf(stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("all %d documents failed", failureCount)
	}
	return nil
}

func writeSummary(base string, result *worker.DocumentResult) error {
	if err := os.WriteFile(base+".md", []byte(pipeline.SummaryMarkdown(result.Summary)), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}

	data, err := json.MarshalIndent(result.Summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	if err := os.WriteFile(base+".json", append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func summaryName(ref, title string) string {
	if title != "" {
		return title
	}
	if name := source.TitleFromRef(ref); name != "" {
		return name
	}
	return "document"
}

// uniqueSlug appends -2, -3, ... to repeated names
func uniqueSlug(used map[string]int, slug string) string {
	used[slug]++
	if n := used[slug]; n > 1 {
		return fmt.Sprintf("%s-%d", slug, n)
	}
	return slug
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))

	// Limit length
	if runes := []rune(s); len(runes) > 100 {
		s = string(runes[:100])
	}
	if s == "" || s == "." || s == ".." {
		return "document"
	}
	return s
}
