package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/distill/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const rule = "═══════════════════════════════════════════════════════════"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Distill configuration",
	Long: `Manage Distill configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (DISTILL_*, OPENAI_API_KEY, ANTHROPIC_API_KEY, ...)
3. Config file (~/.distill/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file, environment variables and flags. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		data, err := yaml.Marshal(masked(*settings))
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}

		fmt.Fprintln(out, rule)
		fmt.Fprintln(out, "  Current Configuration")
		fmt.Fprintln(out, rule)
		fmt.Fprintln(out)
		fmt.Fprint(out, string(data))
		fmt.Fprintln(out)
		fmt.Fprintln(out, rule)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.distill/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := defaultConfigDir()
		if err != nil {
			return err
		}
		path := filepath.Join(dir, "config.yaml")

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'distill config show' to view it, or delete it first to recreate", path)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		if err := writeDefaultConfig(path); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Created default configuration: %s\n", path)
		fmt.Fprintf(out, "\nTo view the effective configuration:\n  distill config show\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func writeDefaultConfig(path string) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()
	return renderDefaultConfig(f)
}

func renderDefaultConfig(w io.Writer) error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	header := `# Distill configuration file
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (DISTILL_<SECTION>_<KEY>, e.g. DISTILL_SUMMARY_LEVEL)
#   3. This config file
#   4. Built-in defaults

`
	footer := `
# API keys are best supplied through the environment:
#   export OPENAI_API_KEY=sk-...
#   export ANTHROPIC_API_KEY=sk-ant-...
#   export GOOGLE_API_KEY=...
#   export OPENROUTER_API_KEY=sk-or-...
#   export OLLAMA_HOST=http://localhost:11434
# Any key and database.url can also be read from a file named by <VAR>_FILE,
# e.g. OPENAI_API_KEY_FILE=/run/secrets/openai.
`
	for _, part := range []string{header, string(data), footer} {
		if _, err := io.WriteString(w, part); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
	}
	return nil
}

// masked hides credentials, keeping a short prefix for recognition
func masked(cfg model.Config) model.Config {
	p := &cfg.Provider
	for _, key := range []*string{&p.OpenAIAPIKey, &p.AnthropicAPIKey, &p.GoogleAPIKey, &p.OpenRouterAPIKey, &cfg.Database.URL} {
		*key = maskSecret(*key)
	}
	return cfg
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	}
	return s[:4] + "****"
}
