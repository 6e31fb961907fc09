package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ctxrag/ctxrag/internal/embed"
	"github.com/ctxrag/ctxrag/internal/index"
	"github.com/ctxrag/ctxrag/internal/ingest"
	"github.com/ctxrag/ctxrag/internal/llm"
	"github.com/ctxrag/ctxrag/internal/output"
	"github.com/ctxrag/ctxrag/internal/store"
)

func newIndexCmd() *cobra.Command {
	var (
		offline bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "index [path...]",
		Short: "Index documents for hybrid search",
		Long: `Index documents to enable contextual hybrid search over their contents.

This loads text, markdown, and PDF files, splits them into chunks,
generates a situating context summary per chunk, embeds the
contextualized text, and writes the chunk records to the data
directory for searching.

With no path, the current directory is indexed. Without an API key
(or with --offline) contexts fall back to deterministic document/page
prefixes and embeddings to local static vectors.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Ctrl+C cancels the context so in-flight LLM and embedding
			// calls stop instead of running to completion
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			paths := args
			if len(paths) == 0 {
				paths = []string{"."}
			}
			return runIndex(ctx, cmd, paths, offline, workers)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip LLM and embedding APIs, use deterministic fallbacks")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent contextualization workers (0 = CPU count)")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, paths []string, offline bool, workers int) error {
	cleanup := setupFileLogging()
	defer cleanup()
	logger := slog.Default()

	out := output.New(cmd.OutOrStdout())

	cfg, root, err := loadConfig()
	if err != nil {
		return err
	}
	if offline {
		cfg.LLM.Provider = "none"
		cfg.Embeddings.Provider = "static"
	}
	if workers > 0 {
		cfg.Index.Workers = workers
	}

	dataDir := cfg.DataDir(root)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// One build at a time per data directory
	lock := store.NewBuildLock(dataDir)
	held, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire build lock: %w", err)
	}
	if !held {
		return fmt.Errorf("another index build is running (lock held at %s)", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	loader := ingest.NewLoader(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap, logger)
	var chunks []store.Chunk
	for _, p := range paths {
		loaded, err := loader.LoadPath(p)
		if err != nil {
			return err
		}
		chunks = append(chunks, loaded...)
	}

	docs := map[string]struct{}{}
	for _, c := range chunks {
		docs[c.DocumentID] = struct{}{}
	}
	out.Statusf("", "Loaded %d chunks from %d documents", len(chunks), len(docs))

	completer, err := llm.NewCompleter(cfg.LLM, logger)
	if err != nil {
		return err
	}
	if completer == nil {
		out.Warning("no LLM provider available, using deterministic context fallbacks")
	} else {
		defer func() { _ = completer.Close() }()
	}

	embedder, err := embed.NewEmbedder(cfg.Embeddings, cfg.LLM.APIKeyEnv, logger)
	if err != nil {
		return err
	}
	defer func() { _ = embedder.Close() }()

	lexical, err := index.NewLexicalIndex(cfg.Search)
	if err != nil {
		return err
	}
	vector, err := index.NewVectorIndex(cfg.Search)
	if err != nil {
		return err
	}

	contextualizer := index.NewContextualizer(completer, cfg.Index.DocContextChars, logger)
	builder := index.NewBuilder(contextualizer, embedder, lexical, vector, cfg.Index.Workers, logger)

	result, err := builder.Build(ctx, chunks)
	if err != nil {
		return err
	}

	path := recordsPath(cfg, root)
	if err := store.SaveRecords(path, result.Chunks); err != nil {
		return err
	}

	out.Successf("Indexed %d chunks (%d embedded, %d skipped, %d LLM contexts)",
		len(result.Chunks), result.Embedded, result.Skipped, result.LLMContexts)
	out.Dim("Artifacts: " + path)
	return nil
}
