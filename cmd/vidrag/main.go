package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwygoda/vidrag/internal/config"
	"github.com/cwygoda/vidrag/internal/observability"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "vidrag",
	Short:         "Ask questions about YouTube videos from their transcripts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "path to TOML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration, validating it when strict is set.
func loadConfig(strict bool) (*config.Config, error) {
	if strict {
		return config.Load(configPath)
	}
	return config.Read(configPath)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
}
