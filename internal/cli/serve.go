package cli

import (
	"github.com/ppiankov/distill/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON HTTP API",
	Long: `Start the HTTP API for summaries, concepts, sections, tags, extracts and
learning items. Stops gracefully on SIGINT or SIGTERM.

Examples:
  distill serve
  distill serve --addr 127.0.0.1:9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, closeRepo, err := newPipeline(ctx)
		if err != nil {
			return err
		}
		defer closeRepo()

		addr := settings.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		return server.New(p, logger).Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
}
