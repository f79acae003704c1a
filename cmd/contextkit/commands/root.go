// Package commands provides the CLI commands for contextkit.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/context-kit/contextkit/internal/config"
	"github.com/context-kit/contextkit/internal/logging"
	"github.com/context-kit/contextkit/pkg/types"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	configPath string
	logLevel   string
	logPretty  bool
)

var rootCmd = &cobra.Command{
	Use:   "contextkit",
	Short: "contextkit - conversational task orchestration for context repositories",
	Long: `contextkit orchestrates tool-assisted conversations over a context
repository: sessions, bounded agent loops, and pipeline execution.

Run 'contextkit serve' to start the HTTP server, or 'contextkit sessions'
to manage stored sessions.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (JSONC)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "log-pretty", false, "Human-readable log output")

	rootCmd.SetVersionTemplate(fmt.Sprintf("contextkit %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig builds the application config and initializes logging from it,
// honoring the global flag overrides.
func loadConfig() (*types.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logPretty {
		cfg.Log.Pretty = true
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Output: os.Stderr,
		Pretty: cfg.Log.Pretty,
	})
	return cfg, nil
}
