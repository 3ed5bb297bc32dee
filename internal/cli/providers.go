package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ppiankov/distill/internal/llm"
	"github.com/spf13/cobra"
)

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported text generation providers",
	Long: `List the supported providers with their default model, endpoint and
whether a credential is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tNAME\tDEFAULT MODEL\tENDPOINT\tCONFIGURED\tMODELS")
		for _, info := range llm.Providers() {
			configured := "no"
			if settings.Provider.Credential(string(info.ID)) != "" {
				configured = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				info.ID, info.Name, info.DefaultModel, info.Endpoint, configured, strings.Join(info.Models, ", "))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
