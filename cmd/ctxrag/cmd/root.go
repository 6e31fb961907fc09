// Package cmd provides the CLI commands for ctxrag.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ctxrag/ctxrag/internal/config"
	ragerr "github.com/ctxrag/ctxrag/internal/errors"
	"github.com/ctxrag/ctxrag/internal/logging"
	"github.com/ctxrag/ctxrag/pkg/version"
)

// recordsFileName is the chunk records file inside the data directory.
const recordsFileName = "chunks.json"

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the ctxrag CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ctxrag",
		Short: "Contextual hybrid retrieval over document collections",
		Long: `ctxrag indexes documents for contextual retrieval: every chunk is
prefixed with a short situating summary before it is embedded and
keyword-indexed, then queries run through hybrid search (dense +
lexical) with optional LLM reranking.

Without an API key the pipeline runs fully offline, substituting
deterministic context and embedding fallbacks.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("ctxrag version {{.Version}}\n")

	// Debug logging flag
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.ctxrag/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging enables debug logging when --debug is set.
func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", "log_file", logging.DefaultLogPath())
	return nil
}

// stopLogging flushes and closes the debug log file.
func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), ragerr.FormatForCLI(err))
		return err
	}
	return nil
}

// setupFileLogging routes slog to the log file only, keeping stdout and
// stderr free for user-facing output. Skipped when --debug already
// installed a logger. Logging failures are not fatal for the CLI.
func setupFileLogging() func() {
	if debugMode {
		return func() {}
	}

	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return func() {}
	}
	slog.SetDefault(logger)
	return cleanup
}

// loadConfig loads configuration for the current working directory.
func loadConfig() (*config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve working directory: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

// recordsPath returns the chunk records file for a config and project root.
func recordsPath(cfg *config.Config, root string) string {
	return filepath.Join(cfg.DataDir(root), recordsFileName)
}
