package cmd

import (
	"log/slog"

	"github.com/ctxrag/ctxrag/internal/config"
	"github.com/ctxrag/ctxrag/internal/embed"
	"github.com/ctxrag/ctxrag/internal/index"
	"github.com/ctxrag/ctxrag/internal/llm"
	"github.com/ctxrag/ctxrag/internal/search"
)

// buildEngine wires a search engine from configuration. The returned
// cleanup closes provider clients and must always be called.
//
// A missing LLM provider disables reranking rather than failing; the
// engine then serves fused scores directly.
func buildEngine(cfg *config.Config, rerank bool, logger *slog.Logger) (*search.Engine, func(), error) {
	embedder, err := embed.NewEmbedder(cfg.Embeddings, cfg.LLM.APIKeyEnv, logger)
	if err != nil {
		return nil, nil, err
	}

	lexical, err := index.NewLexicalIndex(cfg.Search)
	if err != nil {
		_ = embedder.Close()
		return nil, nil, err
	}
	vector, err := index.NewVectorIndex(cfg.Search)
	if err != nil {
		_ = embedder.Close()
		return nil, nil, err
	}

	var completer llm.Completer
	var reranker search.Reranker
	if rerank {
		completer, err = llm.NewCompleter(cfg.LLM, logger)
		if err != nil {
			_ = embedder.Close()
			return nil, nil, err
		}
		if completer != nil {
			reranker = search.NewLLMReranker(completer, logger)
		}
	}

	engine := search.NewEngine(nil, lexical, vector, embedder, reranker, logger)

	cleanup := func() {
		_ = embedder.Close()
		if completer != nil {
			_ = completer.Close()
		}
	}
	return engine, cleanup, nil
}

// searchOptions maps the search configuration to engine options.
func searchOptions(cfg *config.Config, rerank bool) search.Options {
	return search.Options{
		KInitial:      cfg.Search.InitialPool,
		KFinal:        cfg.Search.FinalResults,
		DenseWeight:   cfg.Search.DenseWeight,
		LexicalWeight: cfg.Search.LexicalWeight,
		Rerank:        rerank,
	}
}
