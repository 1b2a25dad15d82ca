package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/iksnae/wakechat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	dbPath     string
	apiBase    string
	logFile    string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// cfg is resolved once per invocation before any command runs
var cfg internal.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wakechat",
	Short: "Chat with your documents through a sleepy question-answering backend",
	Long: `A terminal client for a retrieval-augmented question answering service.

Conversations are kept as independent chat sessions stored locally. Each
question, upload and import is scoped to the session it came from, and a
backend that is asleep on a free-tier host is woken up automatically.

Features:
  • Multiple chat sessions with local persistence
  • Upload documents or import JSON knowledge fragments per session
  • Automatic wake-up and single retry when the backend times out
  • Export conversations (JSONL, Markdown, YAML, JSON)

Quick Start:
  wakechat chat                       # Interactive chat
  wakechat ask "What is in my notes?" # One question in the active session
  wakechat attach notes.pdf faq.json  # Index files for the active session
  wakechat list                       # List sessions`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		internal.SyncLogger()
	},
}

// loadConfig layers the config file, environment and flags into cfg and sets up logging
func loadConfig() error {
	paths, err := internal.DetectDataPaths()
	if err != nil {
		return fmt.Errorf("failed to detect data directory: %w", err)
	}

	resolved, err := internal.LoadConfig(paths, configPath)
	if err != nil {
		return err
	}
	if apiBase != "" {
		resolved.APIBase = apiBase
	}
	if dbPath != "" {
		resolved.DBPath = dbPath
	}
	if logFile != "" {
		resolved.LogFile = logFile
	}
	if err := resolved.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	internal.SetLogLevel(internal.ParseLogLevel(resolved.LogLevel))
	if verbose {
		internal.SetVerbose(true)
	}
	internal.SetLogFile(resolved.LogFile)

	cfg = resolved
	internal.LogDebug("Using backend %s and state %s", cfg.APIBase, cfg.DBPath)
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default: <data dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the local state database")
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", "", "Backend base URL (overrides "+internal.EnvAPIBase+")")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this rotated file")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
