package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/ctxrag/ctxrag/internal/mcp"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve search over MCP on stdio",
		Long: `Serve the indexed documents over the Model Context Protocol.

Exposes search_documents and index_status tools on stdio for AI
clients. Stdout is reserved for protocol messages, so all diagnostics
go to the log file; run 'ctxrag status' for human-readable state.

The server starts even when no index exists yet. Clients see an
unready index_status until 'ctxrag index' has been run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}

	return cmd
}

func runServe(ctx context.Context) error {
	cleanup := setupFileLogging()
	defer cleanup()
	logger := slog.Default()

	cfg, root, err := loadConfig()
	if err != nil {
		return err
	}

	engine, closeEngine, err := buildEngine(cfg, cfg.Search.Rerank, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	if err := engine.LoadArtifacts(recordsPath(cfg, root)); err != nil {
		logger.Warn("index artifacts not loaded, serving unready", "error", err.Error())
	}

	server, err := mcpserver.NewServer(engine, searchOptions(cfg, cfg.Search.Rerank), logger)
	if err != nil {
		return err
	}

	return server.Run(ctx)
}
