package search

import (
	"sort"

	"github.com/ctxrag/ctxrag/internal/index"
)

// FusedCandidate is a single candidate after weighted fusion.
type FusedCandidate struct {
	ChunkID        string
	CombinedScore  float64
	DenseScore     float64
	LexicalScore   float64
	InBothChannels bool
}

// WeightedFusion combines lexical and dense hits by weighted linear
// combination:
//
//	combined = denseWeight*dense + lexicalWeight*lexical
//
// over the union of both pools, with a chunk's missing channel
// contributing zero. Per-channel scores are clamped to [0, 1] before
// combining, so with weights summing to 1 the combined score is bounded
// by [0, 1].
type WeightedFusion struct {
	DenseWeight   float64
	LexicalWeight float64
}

// NewWeightedFusion creates a fusion ranker. Zero weights select the
// defaults.
func NewWeightedFusion(denseWeight, lexicalWeight float64) *WeightedFusion {
	if denseWeight == 0 && lexicalWeight == 0 {
		denseWeight = DefaultDenseWeight
		lexicalWeight = DefaultLexicalWeight
	}
	return &WeightedFusion{
		DenseWeight:   denseWeight,
		LexicalWeight: lexicalWeight,
	}
}

// Fuse combines the two hit lists into a single ranked candidate list.
// The ranking depends only on scores and chunk IDs, never on input
// order, so reordering either hit list leaves the output unchanged.
func (f *WeightedFusion) Fuse(lexical, dense []index.Hit) []*FusedCandidate {
	if len(lexical) == 0 && len(dense) == 0 {
		return []*FusedCandidate{}
	}

	candidates := make(map[string]*FusedCandidate, len(lexical)+len(dense))

	for _, h := range lexical {
		c := getOrCreate(candidates, h.ChunkID)
		c.LexicalScore = clampUnit(h.Score)
	}
	for _, h := range dense {
		c := getOrCreate(candidates, h.ChunkID)
		c.DenseScore = clampUnit(h.Score)
		if c.LexicalScore > 0 {
			c.InBothChannels = true
		}
	}

	results := make([]*FusedCandidate, 0, len(candidates))
	for _, c := range candidates {
		c.CombinedScore = f.DenseWeight*c.DenseScore + f.LexicalWeight*c.LexicalScore
		results = append(results, c)
	}

	sort.Slice(results, func(i, j int) bool {
		return compareCandidates(results[i], results[j])
	})
	return results
}

// getOrCreate returns the existing candidate or creates a new one.
func getOrCreate(m map[string]*FusedCandidate, id string) *FusedCandidate {
	if c, ok := m[id]; ok {
		return c
	}
	c := &FusedCandidate{ChunkID: id}
	m[id] = c
	return c
}

// compareCandidates implements the deterministic ranking order.
// Returns true if a should rank before b.
//
// Priority:
//  1. Higher combined score
//  2. In both channels (true before false)
//  3. Higher dense score
//  4. Lexicographically smaller chunk ID
func compareCandidates(a, b *FusedCandidate) bool {
	if a.CombinedScore != b.CombinedScore {
		return a.CombinedScore > b.CombinedScore
	}
	if a.InBothChannels != b.InBothChannels {
		return a.InBothChannels
	}
	if a.DenseScore != b.DenseScore {
		return a.DenseScore > b.DenseScore
	}
	return a.ChunkID < b.ChunkID
}

// clampUnit caps a channel score at 1.0. Backends normally stay within
// the unit interval; this guards the fusion bound against drift.
func clampUnit(score float64) float64 {
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}
