// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ledgerloom/receiptd/internal/engine"
	"github.com/ledgerloom/receiptd/internal/llm"
	"github.com/ledgerloom/receiptd/internal/sweep"
)

// Config is the resolved application configuration.
type Config struct {
	DBPath        string
	RulesPath     string
	RulesJSON     string
	ServerAddr    string
	SweepSchedule string
	LLM           llm.Config
	Engine        engine.Config
	RulesWatch    bool
	SweepWorkers  int
}

// Load resolves configuration from viper (config file, environment, flags).
func Load() Config {
	cfg := Config{
		DBPath:        ExpandPath(viper.GetString("db.path")),
		RulesPath:     ExpandPath(viper.GetString("rules.path")),
		RulesJSON:     viper.GetString("rules.json"),
		RulesWatch:    viper.GetBool("rules.watch"),
		ServerAddr:    viper.GetString("server.addr"),
		SweepSchedule: viper.GetString("sweep.schedule"),
		SweepWorkers:  viper.GetInt("sweep.workers"),
		LLM: llm.Config{
			Provider:          viper.GetString("llm.provider"),
			APIKey:            viper.GetString("llm.api_key"),
			Model:             viper.GetString("llm.model"),
			Timeout:           viper.GetDuration("llm.timeout"),
			MaxTokens:         viper.GetInt("llm.max_tokens"),
			MaxRetries:        viper.GetInt("llm.max_retries"),
			ConfidenceCeiling: viper.GetFloat64("llm.confidence_ceiling"),
		},
		Engine: engine.Config{
			Threshold:     viper.GetFloat64("classification.threshold"),
			AlwaysCallLLM: viper.GetBool("classification.always_llm"),
		},
	}

	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = ":8080"
	}
	if cfg.SweepWorkers <= 0 {
		cfg.SweepWorkers = sweep.DefaultWorkers
	}
	if cfg.LLM.Timeout <= 0 {
		cfg.LLM.Timeout = llm.DefaultTimeout
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Engine.Threshold <= 0 {
		cfg.Engine.Threshold = engine.DefaultThreshold
	}

	return cfg
}

// DefaultDBPath returns the standard database location.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "receiptd.db"
	}
	return filepath.Join(home, ".local", "share", "receiptd", "receiptd.db")
}

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// SetDefaults registers default values for all known configuration keys.
func SetDefaults() {
	viper.SetDefault("llm.provider", "anthropic")
	viper.SetDefault("llm.timeout", llm.DefaultTimeout)
	viper.SetDefault("llm.confidence_ceiling", llm.DefaultConfidenceCeiling)
	viper.SetDefault("classification.threshold", engine.DefaultThreshold)
	viper.SetDefault("classification.always_llm", false)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("sweep.workers", sweep.DefaultWorkers)
	viper.SetDefault("rules.watch", true)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}
