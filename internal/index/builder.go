package index

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ctxrag/ctxrag/internal/embed"
	"github.com/ctxrag/ctxrag/internal/store"
)

// Builder runs the batch indexing pipeline: contextualize every chunk,
// embed the contextualized text, and build both indexes.
type Builder struct {
	contextualizer *Contextualizer
	embedder       embed.Embedder
	lexical        LexicalIndex
	vector         VectorIndex
	workers        int
	logger         *slog.Logger
}

// BuildResult summarizes a pipeline run.
type BuildResult struct {
	// Chunks are the contextualized chunks in input order, with
	// embeddings attached where embedding succeeded.
	Chunks []store.Chunk

	// Embedded is the number of chunks whose embedding succeeded.
	Embedded int

	// Skipped is the number of chunks dropped from the dense index
	// after an embedding failure. They remain lexically searchable.
	Skipped int

	// LLMContexts is the number of chunks that received an LLM summary
	// rather than the deterministic fallback.
	LLMContexts int
}

// NewBuilder creates a pipeline builder.
func NewBuilder(
	contextualizer *Contextualizer,
	embedder embed.Embedder,
	lexical LexicalIndex,
	vector VectorIndex,
	workers int,
	logger *slog.Logger,
) *Builder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		contextualizer: contextualizer,
		embedder:       embedder,
		lexical:        lexical,
		vector:         vector,
		workers:        workers,
		logger:         logger,
	}
}

// Build runs the full pipeline over the chunk collection.
//
// Contextualization runs per document with bounded concurrency; the
// document context is built once and shared across the document's chunks.
// Chunk order is preserved throughout so index rows stay aligned with
// the chunk list.
func (b *Builder) Build(ctx context.Context, chunks []store.Chunk) (*BuildResult, error) {
	if len(chunks) == 0 {
		if err := b.lexical.Build(nil); err != nil {
			return nil, err
		}
		if err := b.vector.Build(nil); err != nil {
			return nil, err
		}
		return &BuildResult{Chunks: []store.Chunk{}}, nil
	}

	contextualized, err := b.contextualizeAll(ctx, chunks)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{Chunks: contextualized}
	for _, c := range contextualized {
		if c.ContextSummary != FallbackContext(c) {
			result.LLMContexts++
		}
	}

	items := b.embedAll(ctx, contextualized, result)

	if err := b.lexical.Build(result.Chunks); err != nil {
		return nil, err
	}
	if err := b.vector.Build(items); err != nil {
		return nil, err
	}

	b.logger.Info("index build complete",
		"chunks", len(result.Chunks),
		"embedded", result.Embedded,
		"skipped", result.Skipped,
		"llm_contexts", result.LLMContexts)

	return result, nil
}

// contextualizeAll enriches every chunk, one worker per document.
func (b *Builder) contextualizeAll(ctx context.Context, chunks []store.Chunk) ([]store.Chunk, error) {
	// Group positions by document, preserving chunk order within each
	docPositions := make(map[string][]int)
	docOrder := make([]string, 0)
	for i, c := range chunks {
		if _, seen := docPositions[c.DocumentID]; !seen {
			docOrder = append(docOrder, c.DocumentID)
		}
		docPositions[c.DocumentID] = append(docPositions[c.DocumentID], i)
	}

	out := make([]store.Chunk, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for _, docID := range docOrder {
		positions := docPositions[docID]
		g.Go(func() error {
			docChunks := make([]store.Chunk, len(positions))
			for i, pos := range positions {
				docChunks[i] = chunks[pos]
			}

			enriched := b.contextualizer.ContextualizeDocument(gctx, docChunks)
			for i, pos := range positions {
				out[pos] = enriched[i]
			}
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// embedAll embeds the contextualized text of every chunk. A failed batch
// falls back to per-chunk embedding; chunks that still fail are skipped
// from the dense index with a logged warning, and the remaining items
// keep their relative order.
func (b *Builder) embedAll(ctx context.Context, chunks []store.Chunk, result *BuildResult) []VectorItem {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.IndexText()
	}

	items := make([]VectorItem, 0, len(chunks))

	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(vectors) == len(chunks) {
		for i := range chunks {
			result.Chunks[i] = chunks[i].WithEmbedding(vectors[i])
			items = append(items, VectorItem{ChunkID: chunks[i].ID, Vector: vectors[i]})
			result.Embedded++
		}
		return items
	}

	if err != nil {
		b.logger.Warn("batch embedding failed, retrying per chunk", "error", err)
	}

	for i, c := range chunks {
		vec, err := b.embedder.Embed(ctx, texts[i])
		if err != nil {
			b.logger.Warn("embedding failed, skipping chunk from dense index",
				"chunk", c.ID, "error", err)
			result.Skipped++
			continue
		}
		result.Chunks[i] = c.WithEmbedding(vec)
		items = append(items, VectorItem{ChunkID: c.ID, Vector: vec})
		result.Embedded++
	}

	return items
}
