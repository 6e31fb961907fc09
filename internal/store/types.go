// Package store provides the chunk data model and persistence of derived
// retrieval artifacts (contextualized content, summaries, embeddings) as a
// flat list-of-records JSON file.
package store

import (
	"fmt"
)

// Chunk represents the atomic retrievable unit of document text.
//
// Fields populated by ingestion are immutable after creation. Derived fields
// (ContextSummary, ContextualizedContent, Embedding) are produced by the
// batch pipeline; per-query scores (LexicalScore, RerankScore) are transient
// and overwritten on every search.
type Chunk struct {
	// ID is the stable unique identifier, e.g. "doc1_chunk_0".
	ID string

	// DocumentID references the owning document (many chunks, one document).
	DocumentID string

	// DocumentTitle is denormalized from the owning document for display.
	DocumentTitle string

	// PageNumber is the 1-based page/location hint in the source document.
	PageNumber int

	// OriginalContent is the raw extracted text, immutable once created.
	OriginalContent string

	// ContextSummary is the short situating text generated for retrieval.
	ContextSummary string

	// ContextualizedContent is ContextSummary + " " + OriginalContent.
	// Recomputed whenever contextualization re-runs.
	ContextualizedContent string

	// Embedding is the dense vector of ContextualizedContent.
	// Nil when the chunk has not been embedded (or embedding failed).
	Embedding []float32

	// LexicalScore is the per-query TF-IDF similarity. Transient.
	LexicalScore float64

	// RerankScore is the per-query LLM relevance score. Transient.
	RerankScore float64
}

// WithContext returns a copy of the chunk with the situating summary applied.
// The receiver is never mutated, so a failed contextualization pass cannot
// leave a chunk with a summary but stale contextualized content.
func (c Chunk) WithContext(summary string) Chunk {
	c.ContextSummary = summary
	c.ContextualizedContent = summary + " " + c.OriginalContent
	return c
}

// WithEmbedding returns a copy of the chunk carrying the given vector.
func (c Chunk) WithEmbedding(vec []float32) Chunk {
	c.Embedding = vec
	return c
}

// IndexText returns the text the indexes are built over: the contextualized
// content when present, otherwise the raw content.
func (c Chunk) IndexText() string {
	if c.ContextualizedContent != "" {
		return c.ContextualizedContent
	}
	return c.OriginalContent
}

// Document is a read-only metadata container for an ingested document.
type Document struct {
	ID         string
	Title      string
	ChunkCount int
}

// ErrDimensionMismatch indicates a vector dimension mismatch between the
// query embedding and the built index.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (run 'ctxrag index' to rebuild)", e.Expected, e.Got)
}
