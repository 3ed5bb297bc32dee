package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/distill/internal/logs"
	"github.com/ppiankov/distill/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.1.0"

var (
	cfgFile  string
	verbose  bool
	provider string
	llmModel string
	logLevel string
)

// Loaded by the root command before any subcommand runs
var (
	settings  *model.Config
	logger    = slog.Default()
	closeLogs = func() error { return nil }
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "distill",
	Short: "Distill - document summaries, concepts and learning items",
	Long: `Distill turns long documents into study material.

It summarizes documents at three levels of detail, extracts key concepts
and sections, suggests tags, ranks related texts and generates
question/answer and cloze learning items.

Summaries and learning items can be produced by a language model
(OpenAI, Anthropic, Google, OpenRouter or a local Ollama) or, without any
credentials, by built-in rule-based methods.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = closeLogs() }()
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Distill.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "distill v%s\n", version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.distill/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose (debug) logging")
	flags.StringVar(&provider, "provider", "", "text generation provider (openai, anthropic, google, openrouter, ollama)")
	flags.StringVar(&llmModel, "model", "", "model name (default: provider default)")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration and builds the logger
func setup(cmd *cobra.Command, args []string) error {
	v := viper.New()
	root := cmd.Root().PersistentFlags()
	bindings := map[string]string{
		"provider.name":  "provider",
		"provider.model": "model",
		"log.level":      "log-level",
	}
	for key, flag := range bindings {
		if f := root.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	cfg, err := loadConfig(v, cfgFile)
	if err != nil {
		return err
	}

	l, closer, err := logs.New(logs.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Verbose: verbose,
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	settings, logger, closeLogs = cfg, l, closer
	slog.SetDefault(l)
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("Using config file", "path", used)
	}
	return nil
}
