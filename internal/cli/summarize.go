package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/distill/internal/model"
	"github.com/ppiankov/distill/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	summaryLevel   string
	summaryAI      bool
	summaryJSON    bool
	summarySave    bool
	summaryTimeout time.Duration
)

// summarizeCmd represents the summarize command
var summarizeCmd = &cobra.Command{
	Use:   "summarize <file|url|->",
	Short: "Summarize a document",
	Long: `Summarize reads a document and produces a summary:
- Split the document into paragraph-aligned chunks
- Summarize chunks in parallel (with a provider) or by sentence scoring
- Combine the chunk summaries in document order
- Report key concepts and compression statistics

Example:
  distill summarize paper.txt --level brief
  distill summarize https://en.wikipedia.org/wiki/Cell_biology --ai --provider openai
  cat notes.txt | distill summarize - --json
  distill summarize paper.txt --save`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringVar(&summaryLevel, "level", "", "summary level: brief, medium or detailed (default: summary.level)")
	summarizeCmd.Flags().BoolVar(&summaryAI, "ai", false, "use the configured provider (default: summary.use_ai)")
	summarizeCmd.Flags().BoolVar(&summaryJSON, "json", false, "print the result as JSON")
	summarizeCmd.Flags().BoolVar(&summarySave, "save", false, "store the summary as an extract")
	summarizeCmd.Flags().DurationVar(&summaryTimeout, "timeout", 10*time.Minute, "overall timeout")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), summaryTimeout)
	defer cancel()

	p, closeRepo, err := newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	opts, err := summaryOptions(cmd, p.Defaults())
	if err != nil {
		return err
	}

	doc, err := p.Read(ctx, args[0])
	if err != nil {
		return err
	}

	res, err := p.Summarize(ctx, doc, opts)
	if err != nil {
		return fmt.Errorf("summarize %s: %w", args[0], err)
	}

	if summarySave {
		ex, err := p.CreateSummaryExtract(ctx, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Saved summary extract: %s\n", ex.ID)
	}

	if summaryJSON {
		return printJSON(cmd.OutOrStdout(), res)
	}
	renderSummary(cmd.OutOrStdout(), res)
	return nil
}

// summaryOptions applies --level and --ai over the configured defaults
func summaryOptions(cmd *cobra.Command, defaults pipeline.SummaryOptions) (pipeline.SummaryOptions, error) {
	opts := defaults
	if summaryLevel != "" {
		level, err := model.ParseLevel(summaryLevel)
		if err != nil {
			return opts, err
		}
		opts.Level = level
	}
	if cmd.Flags().Changed("ai") {
		opts.UseAI = summaryAI
	}
	return opts, nil
}

func renderSummary(w io.Writer, res *model.SummaryResult) {
	if res.Title != "" {
		fmt.Fprintf(w, "# %s\n\n", res.Title)
	}
	fmt.Fprintln(w, res.Summary)
	fmt.Fprintln(w)

	if len(res.KeyConcepts) > 0 {
		fmt.Fprintf(w, "Key concepts: %s\n", strings.Join(res.KeyConcepts, ", "))
	}

	method := "rule-based"
	if res.UsedAI {
		method = res.Provider + "/" + res.Model
	}
	fmt.Fprintf(w, "Level: %s | Chunks: %d | Words: %d -> %d (%.1f%%) | Method: %s\n",
		res.Level, res.ChunkCount, res.WordCount, res.SummaryWordCount, res.CompressionRatio*100, method)
}
