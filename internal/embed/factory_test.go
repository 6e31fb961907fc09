package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxrag/ctxrag/internal/config"
)

func TestNewEmbedderStatic(t *testing.T) {
	e, err := NewEmbedder(config.EmbeddingsConfig{Provider: "static"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "static", e.ModelName())
	assert.Equal(t, StaticDimensions, e.Dimensions())
}

func TestNewEmbedderAutoWithoutKey(t *testing.T) {
	t.Setenv("CTXRAG_TEST_EMBED_KEY", "")

	e, err := NewEmbedder(config.EmbeddingsConfig{}, "CTXRAG_TEST_EMBED_KEY", nil)
	require.NoError(t, err)
	assert.Equal(t, "static", e.ModelName())
}

func TestNewEmbedderAutoWithKey(t *testing.T) {
	t.Setenv("CTXRAG_TEST_EMBED_KEY", "sk-test")

	e, err := NewEmbedder(config.EmbeddingsConfig{}, "CTXRAG_TEST_EMBED_KEY", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, e.ModelName())
	assert.Equal(t, DefaultOpenAIDimensions, e.Dimensions())
}

func TestNewEmbedderOpenAIWithoutKeyDegrades(t *testing.T) {
	t.Setenv("CTXRAG_TEST_EMBED_KEY", "")

	e, err := NewEmbedder(config.EmbeddingsConfig{Provider: "openai"}, "CTXRAG_TEST_EMBED_KEY", nil)
	require.NoError(t, err)
	assert.Equal(t, "static", e.ModelName())
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	_, err := NewEmbedder(config.EmbeddingsConfig{Provider: "cohere"}, "", nil)
	assert.Error(t, err)
}

func TestNewEmbedderIsCached(t *testing.T) {
	e, err := NewEmbedder(config.EmbeddingsConfig{Provider: "static"}, "", nil)
	require.NoError(t, err)

	_, ok := e.(*CachedEmbedder)
	assert.True(t, ok)

	vec, err := e.Embed(context.Background(), "cached lookup")
	require.NoError(t, err)
	assert.Len(t, vec, StaticDimensions)
}
