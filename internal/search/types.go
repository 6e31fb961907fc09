// Package search provides hybrid retrieval: lexical and dense hits are
// fused by weighted linear combination, then optionally reranked by an
// LLM relevance pass.
package search

import (
	"github.com/ctxrag/ctxrag/internal/store"
)

// Pool and weight defaults. Weights are defaults, not mandates; both are
// configurable per corpus.
const (
	// DefaultKInitial is the per-channel recall pool before fusion.
	DefaultKInitial = 150

	// DefaultKFinal is the number of results returned.
	DefaultKFinal = 20

	// DefaultDenseWeight is the dense channel's share of the combined score.
	DefaultDenseWeight = 0.6

	// DefaultLexicalWeight is the lexical channel's share.
	DefaultLexicalWeight = 0.4

	// RerankScale is the top of the reranker's scoring range.
	RerankScale = 10
)

// Options control a single search call.
type Options struct {
	// KInitial is the per-channel pool size before fusion.
	KInitial int

	// KFinal is the number of results returned.
	KFinal int

	// DenseWeight and LexicalWeight are the fusion weights. They should
	// sum to 1.0 so combined scores stay within [0, 1].
	DenseWeight   float64
	LexicalWeight float64

	// Rerank enables the LLM relevance pass over the fused candidates
	// before truncation to KFinal.
	Rerank bool
}

// DefaultOptions returns the standard search options.
func DefaultOptions() Options {
	return Options{
		KInitial:      DefaultKInitial,
		KFinal:        DefaultKFinal,
		DenseWeight:   DefaultDenseWeight,
		LexicalWeight: DefaultLexicalWeight,
		Rerank:        true,
	}
}

// withDefaults fills zero values with the standard options.
func (o Options) withDefaults() Options {
	if o.KInitial <= 0 {
		o.KInitial = DefaultKInitial
	}
	if o.KFinal <= 0 {
		o.KFinal = DefaultKFinal
	}
	if o.DenseWeight == 0 && o.LexicalWeight == 0 {
		o.DenseWeight = DefaultDenseWeight
		o.LexicalWeight = DefaultLexicalWeight
	}
	if o.KFinal > o.KInitial {
		o.KFinal = o.KInitial
	}
	return o
}

// Result is a single search result with its per-channel scores.
type Result struct {
	// Chunk is the matched chunk.
	Chunk store.Chunk

	// CombinedScore is the weighted fusion score in [0, 1].
	CombinedScore float64

	// DenseScore and LexicalScore are the per-channel scores, zero when
	// the chunk was absent from that channel's pool.
	DenseScore   float64
	LexicalScore float64

	// RerankScore is the LLM relevance score on the 0-10 scale, or the
	// fallback (CombinedScore * 10) when reranking was skipped or failed.
	RerankScore float64

	// InBothChannels reports whether the chunk appeared in both pools.
	InBothChannels bool
}
