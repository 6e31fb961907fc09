package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	ragerr "github.com/ctxrag/ctxrag/internal/errors"
	"github.com/ctxrag/ctxrag/internal/output"
)

// searchFlags holds CLI flags for search.
type searchFlags struct {
	limit    int
	format   string // "text", "json"
	noRerank bool
}

func newSearchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed documents",
		Long: `Search the indexed documents using contextual hybrid retrieval.

Dense (embedding) and lexical (TF-IDF) channels are queried in
parallel, fused by weighted linear combination, optionally reranked
by the configured LLM, and cut to the requested result count.

Examples:
  ctxrag search "extra innings ghost runner"
  ctxrag search "fielding positions" --limit 5
  ctxrag search "designated hitter" --format json --no-rerank`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.limit, "limit", "n", 0, "Maximum number of results (0 = configured default)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&flags.noRerank, "no-rerank", false, "Skip the LLM reranking pass")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, flags searchFlags) error {
	cleanup := setupFileLogging()
	defer cleanup()
	logger := slog.Default()

	out := output.New(cmd.OutOrStdout())

	cfg, root, err := loadConfig()
	if err != nil {
		return err
	}

	rerank := cfg.Search.Rerank && !flags.noRerank
	engine, closeEngine, err := buildEngine(cfg, rerank, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	if err := engine.LoadArtifacts(recordsPath(cfg, root)); err != nil {
		if ragerr.GetCode(err) == ragerr.ErrCodeFileNotFound {
			return fmt.Errorf("no index found. Run 'ctxrag index' first")
		}
		return err
	}

	opts := searchOptions(cfg, rerank)
	if flags.limit > 0 {
		opts.KFinal = flags.limit
	}

	logger.Info("search_started", "query", query, "limit", opts.KFinal)
	results, err := engine.Search(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	logger.Info("search_complete", "results", len(results))

	switch flags.format {
	case "json":
		return out.ResultsJSON(results)
	default:
		out.ResultsText(query, results)
		return nil
	}
}
