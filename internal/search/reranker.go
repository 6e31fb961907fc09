package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ctxrag/ctxrag/internal/llm"
)

// Reranker reorders fused results by query relevance.
type Reranker interface {
	// Rerank scores and reorders results. It never fails: candidates
	// that cannot be scored keep their fused-order fallback score.
	Rerank(ctx context.Context, query string, results []Result) []Result
}

// rerankPromptTemplate asks for a single relevance score.
const rerankPromptTemplate = `On a scale of 0-10, how relevant is this document chunk to the query?

Query: %s

Chunk: %s

Answer with only the number.`

// LLMReranker scores each candidate with a per-candidate LLM call.
//
// A candidate whose completion fails or does not parse keeps the fallback
// score CombinedScore * 10, which maps the fused ranking onto the 0-10
// scale. When every candidate falls back the fused order is preserved
// exactly.
type LLMReranker struct {
	completer llm.Completer
	logger    *slog.Logger
}

var _ Reranker = (*LLMReranker)(nil)

// NewLLMReranker creates a reranker using the given completer.
func NewLLMReranker(completer llm.Completer, logger *slog.Logger) *LLMReranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMReranker{completer: completer, logger: logger}
}

// Rerank scores each result and reorders by rerank score.
func (r *LLMReranker) Rerank(ctx context.Context, query string, results []Result) []Result {
	if len(results) == 0 {
		return results
	}

	out := make([]Result, len(results))
	copy(out, results)

	for i := range out {
		out[i].RerankScore = r.scoreOne(ctx, query, out[i])
	}

	// Stable sort: equal rerank scores keep the fused order
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RerankScore > out[j].RerankScore
	})
	return out
}

// scoreOne asks the LLM for a 0-10 relevance score, falling back to the
// fused score scaled to 0-10.
func (r *LLMReranker) scoreOne(ctx context.Context, query string, res Result) float64 {
	fallback := res.CombinedScore * RerankScale

	prompt := fmt.Sprintf(rerankPromptTemplate, query, res.Chunk.IndexText())

	raw, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		r.logger.Warn("rerank scoring failed, using fused score",
			"chunk", res.Chunk.ID, "error", err)
		return fallback
	}

	reply := llm.ParseScoreReply(raw, RerankScale)
	if !reply.OK {
		r.logger.Warn("rerank reply did not parse, using fused score",
			"chunk", res.Chunk.ID, "reply", reply.Raw)
		return fallback
	}

	return reply.Value
}

// NoOpReranker passes results through unchanged, carrying the fallback
// rerank score. Used when no LLM is configured or reranking is disabled.
type NoOpReranker struct{}

var _ Reranker = (*NoOpReranker)(nil)

// Rerank returns the results in their fused order.
func (NoOpReranker) Rerank(_ context.Context, _ string, results []Result) []Result {
	out := make([]Result, len(results))
	copy(out, results)
	for i := range out {
		out[i].RerankScore = out[i].CombinedScore * RerankScale
	}
	return out
}
