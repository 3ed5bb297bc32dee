package cli

import (
	"fmt"

	"github.com/ppiankov/distill/internal/store/postgres"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Apply the embedded schema migrations to the Postgres database named by
database.url (or DISTILL_DATABASE_URL).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := postgres.Migrate(cmd.Context(), settings.Database.URL, logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Database is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
