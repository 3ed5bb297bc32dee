package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/ppiankov/distill/internal/source"
	"github.com/spf13/cobra"
)

var (
	conceptCount int
	keySections  int
	tagCount     int
	similarCount int
	similarID    string
	analyzeJSON  bool
)

// conceptsCmd represents the concepts command
var conceptsCmd = &cobra.Command{
	Use:   "concepts <file|url|->",
	Short: "List the key concepts of a document",
	Long: `Concepts ranks named entities, noun phrases and TF-IDF weighted terms
by importance and prints the strongest ones.

Example:
  distill concepts paper.txt -n 15
  distill concepts https://example.com/article --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closeRepo, err := newPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer closeRepo()

		doc, err := p.Read(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		concepts := p.Concepts(doc.Text, conceptCount)
		if analyzeJSON {
			return printJSON(cmd.OutOrStdout(), concepts)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CONCEPT\tKIND\tIMPORTANCE")
		for _, c := range concepts {
			fmt.Fprintf(w, "%s\t%s\t%.2f\n", c.Text, c.Kind, c.Importance)
		}
		return w.Flush()
	},
}

// sectionsCmd represents the sections command
var sectionsCmd = &cobra.Command{
	Use:   "sections <file|url|->",
	Short: "Segment a document into scored sections",
	Long: `Sections groups sentences into paragraphs and paragraphs into titled
sections with a priority score. With --key N only the N most important
sections are printed, in document order.

Example:
  distill sections paper.txt
  distill sections paper.txt --key 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closeRepo, err := newPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer closeRepo()

		doc, err := p.Read(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if keySections > 0 {
			sections := p.KeySections(doc.Text, keySections)
			if analyzeJSON {
				return printJSON(out, sections)
			}
			for _, s := range sections {
				fmt.Fprintf(out, "## %s (score %.1f, %d words)\n\n%s\n\n", s.Title, s.Score, s.WordCount, s.Content)
			}
			return nil
		}

		sections := p.Sections(doc.Text)
		if analyzeJSON {
			return printJSON(out, sections)
		}
		for _, s := range sections {
			fmt.Fprintf(out, "## %s (priority %.0f, %d words)\n\n%s\n\n", s.Title, s.Priority, s.WordCount, s.Content)
		}
		return nil
	},
}

// tagsCmd represents the tags command
var tagsCmd = &cobra.Command{
	Use:   "tags <file|url|->",
	Short: "Suggest tags for a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closeRepo, err := newPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer closeRepo()

		doc, err := p.Read(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		suggestions := p.Tags(doc.Text, tagCount)
		if analyzeJSON {
			if suggestions == nil {
				suggestions = []string{}
			}
			return printJSON(cmd.OutOrStdout(), suggestions)
		}
		for _, tag := range suggestions {
			fmt.Fprintln(cmd.OutOrStdout(), tag)
		}
		return nil
	},
}

// similarCmd represents the similar command
var similarCmd = &cobra.Command{
	Use:   "similar <target> <candidate>...",
	Short: "Rank documents by similarity to a target",
	Long: `Similar compares documents by TF-IDF cosine similarity. Give a target
and candidate documents, or --extract ID to rank the stored extracts
related to one extract.

Example:
  distill similar notes/cells.txt notes/*.txt
  distill similar --extract 3f2a9c4e-8d1b-4b8e-9a63-2f0c5d7e1a42`,
	Args: func(cmd *cobra.Command, args []string) error {
		if similarID != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, closeRepo, err := newPipeline(ctx)
		if err != nil {
			return err
		}
		defer closeRepo()

		var matches any
		var rows [][3]string

		if similarID != "" {
			related, err := p.RelatedExtracts(ctx, similarID, similarCount)
			if err != nil {
				return err
			}
			matches = related
			for _, m := range related {
				rows = append(rows, [3]string{fmt.Sprintf("%.3f", m.Score), m.ID, m.Preview})
			}
		} else {
			docs := make([]*source.Document, 0, len(args))
			for _, ref := range args {
				doc, err := p.Read(ctx, ref)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
			}
			ranked := p.Similar(docs[0], docs[1:], similarCount)
			matches = ranked
			for _, m := range ranked {
				rows = append(rows, [3]string{fmt.Sprintf("%.3f", m.Score), m.ID, m.Preview})
			}
		}

		if analyzeJSON {
			return printJSON(cmd.OutOrStdout(), matches)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCORE\tDOCUMENT\tPREVIEW")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r[0], r[1], r[2])
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(conceptsCmd, sectionsCmd, tagsCmd, similarCmd)

	conceptsCmd.Flags().IntVarP(&conceptCount, "count", "n", 10, "number of concepts")
	sectionsCmd.Flags().IntVar(&keySections, "key", 0, "print only the N highest scoring sections")
	tagsCmd.Flags().IntVarP(&tagCount, "count", "k", 5, "number of tags")
	similarCmd.Flags().IntVarP(&similarCount, "count", "k", 5, "number of matches")
	similarCmd.Flags().StringVar(&similarID, "extract", "", "rank stored extracts related to this extract ID")

	for _, c := range []*cobra.Command{conceptsCmd, sectionsCmd, tagsCmd, similarCmd} {
		c.Flags().BoolVar(&analyzeJSON, "json", false, "print the result as JSON")
	}
}
