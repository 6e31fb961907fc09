package cmd

import (
	"github.com/spf13/cobra"

	ragerr "github.com/ctxrag/ctxrag/internal/errors"
	"github.com/ctxrag/ctxrag/internal/index"
	"github.com/ctxrag/ctxrag/internal/output"
	"github.com/ctxrag/ctxrag/internal/store"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index status",
		Long:  `Show whether an index exists and what it contains.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd)
		},
	}

	return cmd
}

func runStatus(cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())

	cfg, root, err := loadConfig()
	if err != nil {
		return err
	}

	path := recordsPath(cfg, root)
	chunks, err := store.LoadRecords(path)
	if err != nil {
		if ragerr.GetCode(err) == ragerr.ErrCodeFileNotFound {
			out.Warning("No index found. Run 'ctxrag index' first.")
			return nil
		}
		return err
	}

	docs := map[string]struct{}{}
	embedded := 0
	llmContexts := 0
	for _, c := range chunks {
		docs[c.DocumentID] = struct{}{}
		if len(c.Embedding) > 0 {
			embedded++
		}
		if c.ContextSummary != "" && c.ContextSummary != index.FallbackContext(c) {
			llmContexts++
		}
	}

	out.Header("Index status")
	out.Statusf("", "Documents:    %d", len(docs))
	out.Statusf("", "Chunks:       %d", len(chunks))
	out.Statusf("", "Embedded:     %d", embedded)
	out.Statusf("", "LLM contexts: %d", llmContexts)
	out.Dim("Artifacts: " + path)
	return nil
}
