package cli

import (
	"fmt"

	"github.com/ppiankov/distill/internal/model"
	"github.com/spf13/cobra"
)

var (
	learnMax      int
	learnAI       bool
	learnPriority int
	learnExtract  string
	learnJSON     bool
)

// learnCmd represents the learn command
var learnCmd = &cobra.Command{
	Use:   "learn <qa|cloze> [file|url|-]",
	Short: "Generate learning items from a document or stored extract",
	Long: `Learn stores the document as an extract and generates learning items:
- qa: question/answer pairs
- cloze: sentences with a key term replaced by [...]

With a configured provider and --ai, items are generated by the language
model; otherwise, or when the provider fails, they are built from the
document's key concepts.

Example:
  distill learn qa notes.txt --max 5
  distill learn cloze https://example.com/article --ai --provider anthropic
  distill learn qa --extract 3f2a9c4e-8d1b-4b8e-9a63-2f0c5d7e1a42`,
	Args: func(cmd *cobra.Command, args []string) error {
		if learnExtract != "" {
			return cobra.ExactArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runLearn,
}

func init() {
	rootCmd.AddCommand(learnCmd)

	learnCmd.Flags().IntVar(&learnMax, "max", 0, "maximum number of items (default: learning.max_items)")
	learnCmd.Flags().BoolVar(&learnAI, "ai", false, "use the configured provider")
	learnCmd.Flags().IntVar(&learnPriority, "priority", 50, "priority of the stored extract (1-100)")
	learnCmd.Flags().StringVar(&learnExtract, "extract", "", "generate for an existing extract ID")
	learnCmd.Flags().BoolVar(&learnJSON, "json", false, "print the items as JSON")
}

func runLearn(cmd *cobra.Command, args []string) error {
	itemType := model.ItemType(args[0])
	if itemType != model.ItemQA && itemType != model.ItemCloze {
		return fmt.Errorf("unknown item type %q (supported: qa, cloze)", args[0])
	}

	ctx := cmd.Context()
	p, closeRepo, err := newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	extractID := learnExtract
	if extractID == "" {
		doc, err := p.Read(ctx, args[1])
		if err != nil {
			return err
		}
		ex := &model.Extract{
			DocumentID: doc.Ref,
			Content:    doc.Text,
			Context:    doc.Title,
			Priority:   learnPriority,
		}
		if err := p.CreateExtract(ctx, ex); err != nil {
			return err
		}
		extractID = ex.ID
		logger.Debug("Stored document as extract", "id", ex.ID, "ref", doc.Ref)
	}

	limit := learnMax
	if limit <= 0 {
		limit = settings.Learning.MaxItems
	}

	items, err := p.GenerateItems(ctx, extractID, itemType, limit, learnAI)
	if err != nil {
		return fmt.Errorf("generate %s items: %w", itemType, err)
	}

	if learnJSON {
		return printJSON(cmd.OutOrStdout(), items)
	}

	out := cmd.OutOrStdout()
	for i, item := range items {
		fmt.Fprintf(out, "%d. Q: %s\n   A: %s\n\n", i+1, item.Question, item.Answer)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Generated %d %s items for extract %s\n", len(items), itemType, extractID)
	return nil
}
