package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/distill/internal/model"
	"github.com/spf13/viper"
)

const envPrefix = "DISTILL"

// Provider credentials also honour the variables the vendors document
var credentialEnv = map[string]string{
	"provider.openai_api_key":     "OPENAI_API_KEY",
	"provider.anthropic_api_key":  "ANTHROPIC_API_KEY",
	"provider.google_api_key":     "GOOGLE_API_KEY",
	"provider.openrouter_api_key": "OPENROUTER_API_KEY",
	"provider.ollama_host":        "OLLAMA_HOST",
}

// Keys that may be read from a file named by <ENV>_FILE
var secretKeys = []string{
	"provider.openai_api_key",
	"provider.anthropic_api_key",
	"provider.google_api_key",
	"provider.openrouter_api_key",
	"database.url",
}

// defaultConfigDir is ~/.distill
func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".distill"), nil
}

// loadConfig merges defaults, the config file, environment variables and
// bound flags, in increasing priority, and validates the result.
func loadConfig(v *viper.Viper, cfgFile string) (*model.Config, error) {
	setDefaults(v, model.DefaultConfig())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultConfigDir()
		if err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, fallback := range credentialEnv {
		if err := v.BindEnv(key, envName(key), fallback); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", fallback, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for _, key := range secretKeys {
		value, ok, err := secretFromFile(key)
		if err != nil {
			return nil, err
		}
		if ok {
			v.Set(key, value)
		}
	}

	cfg := model.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, cfg model.Config) {
	v.SetDefault("provider.name", cfg.Provider.Name)
	v.SetDefault("provider.model", cfg.Provider.Model)
	v.SetDefault("provider.timeout", cfg.Provider.Timeout)
	v.SetDefault("provider.openai_api_key", "")
	v.SetDefault("provider.anthropic_api_key", "")
	v.SetDefault("provider.google_api_key", "")
	v.SetDefault("provider.openrouter_api_key", "")
	v.SetDefault("provider.ollama_host", cfg.Provider.OllamaHost)
	v.SetDefault("summary.level", cfg.Summary.Level)
	v.SetDefault("summary.use_ai", cfg.Summary.UseAI)
	v.SetDefault("learning.max_items", cfg.Learning.MaxItems)
	v.SetDefault("rate_limit.requests_per_second", cfg.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", cfg.RateLimit.Burst)
	v.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	v.SetDefault("http.timeout", cfg.HTTP.Timeout)
	v.SetDefault("http.max_bytes", cfg.HTTP.MaxBytes)
	v.SetDefault("http.http_proxy", "")
	v.SetDefault("http.https_proxy", "")
	v.SetDefault("http.no_proxy", "")
	v.SetDefault("database.url", "")
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", "")
}

// envName is the prefixed variable for a config key
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// secretFromFile checks DISTILL_<KEY>_FILE, then the vendor variable with a
// _FILE suffix, and returns the trimmed file content
func secretFromFile(key string) (string, bool, error) {
	candidates := []string{envName(key) + "_FILE"}
	if fallback, ok := credentialEnv[key]; ok {
		candidates = append(candidates, fallback+"_FILE")
	}

	for _, name := range candidates {
		path := os.Getenv(name)
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", false, fmt.Errorf("read %s: %w", name, err)
		}
		return strings.TrimSpace(string(data)), true, nil
	}
	return "", false, nil
}
