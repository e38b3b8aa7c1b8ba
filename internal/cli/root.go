// Package cli implements the agent-memory CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hoofy-agent/agent-memory/internal/config"
	"github.com/hoofy-agent/agent-memory/internal/logging"
)

var logLevelFlag string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-memory",
	Short: "Persistent, searchable memory for AI agents, served over MCP",
	Long:  "A categorized markdown memory tree with hybrid vector+fulltext search, served over MCP (serve) or reconciled once from the CLI (sync).",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override LOG_LEVEL for this invocation")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	return cfg, nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	return logging.New(logging.Config{Level: cfg.LogLevel})
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
