package search

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxrag/ctxrag/internal/index"
)

func TestFuseWeightedCombination(t *testing.T) {
	f := NewWeightedFusion(0.6, 0.4)

	lexical := []index.Hit{{ChunkID: "a", Score: 0.5}}
	dense := []index.Hit{{ChunkID: "a", Score: 0.8}}

	out := f.Fuse(lexical, dense)
	require.Len(t, out, 1)
	assert.InDelta(t, 0.6*0.8+0.4*0.5, out[0].CombinedScore, 1e-9)
	assert.True(t, out[0].InBothChannels)
}

func TestFuseUnionOfChannels(t *testing.T) {
	f := NewWeightedFusion(0.6, 0.4)

	lexical := []index.Hit{{ChunkID: "lex-only", Score: 1.0}}
	dense := []index.Hit{{ChunkID: "dense-only", Score: 1.0}}

	out := f.Fuse(lexical, dense)
	require.Len(t, out, 2)

	// Dense-only at weight 0.6 outranks lexical-only at 0.4
	assert.Equal(t, "dense-only", out[0].ChunkID)
	assert.InDelta(t, 0.6, out[0].CombinedScore, 1e-9)
	assert.Equal(t, "lex-only", out[1].ChunkID)
	assert.InDelta(t, 0.4, out[1].CombinedScore, 1e-9)
	assert.False(t, out[0].InBothChannels)
}

func TestFuseScoreBounded(t *testing.T) {
	f := NewWeightedFusion(0.6, 0.4)

	// Channel scores above 1 are clamped before combining
	lexical := []index.Hit{{ChunkID: "a", Score: 3.7}, {ChunkID: "b", Score: 0.2}}
	dense := []index.Hit{{ChunkID: "a", Score: 1.5}, {ChunkID: "c", Score: 0.9}}

	out := f.Fuse(lexical, dense)
	for _, c := range out {
		assert.GreaterOrEqual(t, c.CombinedScore, 0.0)
		assert.LessOrEqual(t, c.CombinedScore, 1.0)
	}
}

func TestFuseOrderIndependentOfInputOrder(t *testing.T) {
	f := NewWeightedFusion(0.6, 0.4)

	lexical := []index.Hit{
		{ChunkID: "a", Score: 0.9},
		{ChunkID: "b", Score: 0.7},
		{ChunkID: "c", Score: 0.5},
		{ChunkID: "d", Score: 0.3},
	}
	dense := []index.Hit{
		{ChunkID: "b", Score: 0.8},
		{ChunkID: "d", Score: 0.6},
		{ChunkID: "e", Score: 0.4},
	}

	baseline := f.Fuse(lexical, dense)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffledLex := append([]index.Hit(nil), lexical...)
		shuffledDense := append([]index.Hit(nil), dense...)
		rng.Shuffle(len(shuffledLex), func(i, j int) {
			shuffledLex[i], shuffledLex[j] = shuffledLex[j], shuffledLex[i]
		})
		rng.Shuffle(len(shuffledDense), func(i, j int) {
			shuffledDense[i], shuffledDense[j] = shuffledDense[j], shuffledDense[i]
		})

		out := f.Fuse(shuffledLex, shuffledDense)
		require.Len(t, out, len(baseline))
		for i := range out {
			assert.Equal(t, baseline[i].ChunkID, out[i].ChunkID)
			assert.Equal(t, baseline[i].CombinedScore, out[i].CombinedScore)
		}
	}
}

func TestFuseDeterministicTieBreak(t *testing.T) {
	f := NewWeightedFusion(0.5, 0.5)

	// Identical scores, only IDs differ
	lexical := []index.Hit{
		{ChunkID: "zeta", Score: 0.5},
		{ChunkID: "alpha", Score: 0.5},
	}

	out := f.Fuse(lexical, nil)
	require.Len(t, out, 2)
	assert.Equal(t, "alpha", out[0].ChunkID)
	assert.Equal(t, "zeta", out[1].ChunkID)
}

func TestFuseEmptyInputs(t *testing.T) {
	f := NewWeightedFusion(0, 0)

	out := f.Fuse(nil, nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Equal(t, DefaultDenseWeight, f.DenseWeight)
	assert.Equal(t, DefaultLexicalWeight, f.LexicalWeight)
}
