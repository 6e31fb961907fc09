package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedderDeterministic(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, "the ghost runner rule in extra innings")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "the ghost runner rule in extra innings")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, StaticDimensions)
}

func TestStaticEmbedderUnitLength(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "roster limits and player eligibility")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestStaticEmbedderEmptyText(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	require.Len(t, vec, StaticDimensions)

	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStaticEmbedderDistinguishesTexts(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, "pitching rotation schedules")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "stadium concession pricing")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestStaticEmbedderBatchAlignment(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	texts := []string{"first chunk", "second chunk", "third chunk"}
	batch, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestStaticEmbedderEmptyBatch(t *testing.T) {
	e := NewStaticEmbedder()

	batch, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, batch)
	assert.Empty(t, batch)
}

func TestStaticEmbedderClosed(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "text")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}

func TestTokenizeTextDropsStopWords(t *testing.T) {
	tokens := tokenizeText("The rule OF the game")
	assert.Equal(t, []string{"rule", "game"}, tokens)
}

func TestExtractNgrams(t *testing.T) {
	assert.Equal(t, []string{"abc", "bcd"}, extractNgrams("abcd", 3))
	assert.Empty(t, extractNgrams("ab", 3))
}
