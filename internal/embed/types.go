// Package embed provides embedding generation for dense retrieval.
//
// Two backends are supported: the OpenAI embeddings API and a deterministic
// hash-based static embedder that needs no network access. The static
// backend keeps the pipeline fully functional in degraded mode with
// reduced semantic quality.
package embed

import (
	"context"
	"math"
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The result is positionally aligned with the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier for cache keying.
	ModelName() string

	// Available reports whether the embedder is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector scales a vector to unit length. Zero vectors are
// returned unchanged so cosine similarity against them is zero.
func normalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}
