package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxrag/ctxrag/internal/embed"
	"github.com/ctxrag/ctxrag/internal/index"
	"github.com/ctxrag/ctxrag/internal/search"
	"github.com/ctxrag/ctxrag/internal/store"
)

func newTestServer(t *testing.T, build bool) *Server {
	t.Helper()

	engine := search.NewEngine(nil, index.NewTFIDFIndex(), index.NewMemoryVectorIndex(),
		embed.NewStaticEmbedder(), nil, nil)

	if build {
		chunks := []store.Chunk{
			{ID: "rules_chunk_0", DocumentID: "rules", DocumentTitle: "Official Rules",
				PageNumber: 1, OriginalContent: "The ghost runner rule applies in extra innings."},
			{ID: "rules_chunk_1", DocumentID: "rules", DocumentTitle: "Official Rules",
				PageNumber: 2, OriginalContent: "Each team fields nine players."},
		}
		for i := range chunks {
			chunks[i] = chunks[i].WithContext("Document: Official Rules (Page 1). ")
			vec, err := embed.NewStaticEmbedder().Embed(context.Background(), chunks[i].IndexText())
			require.NoError(t, err)
			chunks[i] = chunks[i].WithEmbedding(vec)
		}
		require.NoError(t, engine.Rebuild(chunks))
	}

	s, err := NewServer(engine, search.DefaultOptions(), nil)
	require.NoError(t, err)
	return s
}

func TestNewServerRequiresEngine(t *testing.T) {
	_, err := NewServer(nil, search.Options{}, nil)
	assert.Error(t, err)
}

func TestSearchHandler(t *testing.T) {
	s := newTestServer(t, true)

	_, out, err := s.searchHandler(context.Background(), nil, SearchInput{
		Query: "ghost runner rule",
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.Results)

	top := out.Results[0]
	assert.Equal(t, "Official Rules", top.DocumentTitle)
	assert.Equal(t, 1, top.PageNumber)
	assert.Contains(t, top.Content, "ghost runner")
	assert.Greater(t, top.Score, 0.0)
}

func TestSearchHandlerRequiresQuery(t *testing.T) {
	s := newTestServer(t, true)

	_, _, err := s.searchHandler(context.Background(), nil, SearchInput{})
	assert.Error(t, err)
}

func TestSearchHandlerLimit(t *testing.T) {
	s := newTestServer(t, true)

	_, out, err := s.searchHandler(context.Background(), nil, SearchInput{
		Query: "the team rules of play",
		Limit: 1,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out.Results), 1)
}

func TestSearchHandlerBeforeBuild(t *testing.T) {
	s := newTestServer(t, false)

	_, out, err := s.searchHandler(context.Background(), nil, SearchInput{Query: "anything"})
	require.NoError(t, err)
	assert.Empty(t, out.Results)
}

func TestStatusHandler(t *testing.T) {
	s := newTestServer(t, true)

	_, out, err := s.statusHandler(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	assert.True(t, out.Ready)
	assert.Equal(t, 2, out.Chunks)
	assert.Equal(t, 1, out.Documents)
}

func TestStatusHandlerUnbuilt(t *testing.T) {
	s := newTestServer(t, false)

	_, out, err := s.statusHandler(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	assert.False(t, out.Ready)
	assert.Zero(t, out.Chunks)
}
