package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ctxrag/ctxrag/internal/embed"
	"github.com/ctxrag/ctxrag/internal/index"
	"github.com/ctxrag/ctxrag/internal/store"
)

// Engine is the hybrid retrieval engine. Both channels are queried in
// parallel, fused, reranked, and truncated to the final result count.
//
// The engine is safe for concurrent searches. Queries before any index
// has been built return empty results, not errors.
type Engine struct {
	mu       sync.RWMutex
	chunks   *store.ChunkStore
	lexical  index.LexicalIndex
	vector   index.VectorIndex
	embedder embed.Embedder
	reranker Reranker
	ready    bool
	logger   *slog.Logger
}

// NewEngine creates a search engine. A nil reranker disables the LLM
// pass; results then carry the fused-order fallback scores.
func NewEngine(
	chunks *store.ChunkStore,
	lexical index.LexicalIndex,
	vector index.VectorIndex,
	embedder embed.Embedder,
	reranker Reranker,
	logger *slog.Logger,
) *Engine {
	if reranker == nil {
		reranker = NoOpReranker{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if chunks == nil {
		chunks = store.NewChunkStore()
	}
	return &Engine{
		chunks:   chunks,
		lexical:  lexical,
		vector:   vector,
		embedder: embedder,
		reranker: reranker,
		logger:   logger,
	}
}

// Rebuild swaps in a new chunk collection and rebuilds both indexes from
// it. Chunks without embeddings are absent from the dense index but stay
// lexically searchable. Marks the engine ready.
func (e *Engine) Rebuild(chunks []store.Chunk) error {
	fresh := store.NewChunkStore()
	if err := fresh.Add(chunks...); err != nil {
		return err
	}

	if err := e.lexical.Build(chunks); err != nil {
		return err
	}

	items := make([]index.VectorItem, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) > 0 {
			items = append(items, index.VectorItem{ChunkID: c.ID, Vector: c.Embedding})
		}
	}
	if err := e.vector.Build(items); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.chunks = fresh
	e.ready = true
	return nil
}

// LoadArtifacts reads the chunk records file and rebuilds the indexes.
func (e *Engine) LoadArtifacts(path string) error {
	chunks, err := store.LoadRecords(path)
	if err != nil {
		return err
	}
	return e.Rebuild(chunks)
}

// Ready reports whether the engine has a built index.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

// Store returns the current chunk collection.
func (e *Engine) Store() *store.ChunkStore {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.chunks
}

// Search runs a hybrid query.
//
// Channel failures degrade rather than fail: a channel that errors
// contributes an empty pool and the other channel carries the query.
// The returned error is reserved for context cancellation.
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	opts = opts.withDefaults()

	if strings.TrimSpace(query) == "" {
		return []Result{}, nil
	}

	e.mu.RLock()
	ready := e.ready
	chunks := e.chunks
	e.mu.RUnlock()

	if !ready {
		e.logger.Debug("search before index build, returning empty results")
		return []Result{}, nil
	}

	var lexicalHits, denseHits []index.Hit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := e.lexical.Search(query, opts.KInitial)
		if err != nil {
			e.logger.Warn("lexical channel failed", "error", err)
			return nil
		}
		lexicalHits = hits
		return nil
	})
	g.Go(func() error {
		qvec, err := e.embedder.Embed(gctx, query)
		if err != nil {
			e.logger.Warn("query embedding failed, dense channel skipped", "error", err)
			return nil
		}
		hits, err := e.vector.Search(qvec, opts.KInitial)
		if err != nil {
			e.logger.Warn("dense channel failed", "error", err)
			return nil
		}
		denseHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	fusion := NewWeightedFusion(opts.DenseWeight, opts.LexicalWeight)
	candidates := fusion.Fuse(lexicalHits, denseHits)

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		chunk, ok := chunks.Get(c.ChunkID)
		if !ok {
			// Index and store out of sync; drop the orphan hit
			e.logger.Warn("hit refers to unknown chunk", "chunk", c.ChunkID)
			continue
		}
		results = append(results, Result{
			Chunk:          chunk,
			CombinedScore:  c.CombinedScore,
			DenseScore:     c.DenseScore,
			LexicalScore:   c.LexicalScore,
			InBothChannels: c.InBothChannels,
		})
	}

	// The whole fused pool is reranked so a chunk outside the fused
	// top slice can still surface; truncation to KFinal comes last.
	if opts.Rerank {
		results = e.reranker.Rerank(ctx, query, results)
	} else {
		results = (NoOpReranker{}).Rerank(ctx, query, results)
	}
	if len(results) > opts.KFinal {
		results = results[:opts.KFinal]
	}

	e.logger.Debug("search complete",
		"query_len", len(query),
		"lexical_hits", len(lexicalHits),
		"dense_hits", len(denseHits),
		"results", len(results))

	return results, nil
}
