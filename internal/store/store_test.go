package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunks() []Chunk {
	return []Chunk{
		{
			ID:              "doc1_chunk_0",
			DocumentID:      "doc1",
			DocumentTitle:   "Official Rules",
			PageNumber:      1,
			OriginalContent: "The ghost runner rule applies in extra innings.",
		},
		{
			ID:              "doc1_chunk_1",
			DocumentID:      "doc1",
			DocumentTitle:   "Official Rules",
			PageNumber:      2,
			OriginalContent: "Each team fields nine players.",
		},
		{
			ID:              "doc2_chunk_0",
			DocumentID:      "doc2",
			DocumentTitle:   "History",
			PageNumber:      1,
			OriginalContent: "The league was founded in 1903.",
		},
	}
}

func TestChunkStoreAdd(t *testing.T) {
	s := NewChunkStore()
	require.NoError(t, s.Add(testChunks()...))

	assert.Equal(t, 3, s.Len())

	docs := s.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "doc1", docs[0].ID)
	assert.Equal(t, 2, docs[0].ChunkCount)
	assert.Equal(t, "doc2", docs[1].ID)
	assert.Equal(t, 1, docs[1].ChunkCount)
}

func TestChunkStoreAddRejectsEmptyIDs(t *testing.T) {
	s := NewChunkStore()
	assert.Error(t, s.Add(Chunk{DocumentID: "doc1"}))
	assert.Error(t, s.Add(Chunk{ID: "c1"}))
}

func TestChunkStoreReplaceKeepsPosition(t *testing.T) {
	s := NewChunkStore()
	require.NoError(t, s.Add(testChunks()...))

	// Re-adding an existing ID replaces in place, preserving order
	updated := testChunks()[0].WithContext("Document: Official Rules (Page 1). ")
	require.NoError(t, s.Add(updated))

	assert.Equal(t, 3, s.Len())
	chunks := s.Chunks()
	assert.Equal(t, "doc1_chunk_0", chunks[0].ID)
	assert.NotEmpty(t, chunks[0].ContextSummary)
}

func TestChunkStoreByDocument(t *testing.T) {
	s := NewChunkStore()
	require.NoError(t, s.Add(testChunks()...))

	got := s.ByDocument("doc1")
	require.Len(t, got, 2)
	assert.Equal(t, "doc1_chunk_0", got[0].ID)
	assert.Equal(t, "doc1_chunk_1", got[1].ID)

	assert.Empty(t, s.ByDocument("missing"))
}

func TestChunkStoreGet(t *testing.T) {
	s := NewChunkStore()
	require.NoError(t, s.Add(testChunks()...))

	c, ok := s.Get("doc2_chunk_0")
	require.True(t, ok)
	assert.Equal(t, "History", c.DocumentTitle)

	_, ok = s.Get("nope")
	assert.False(t, ok)
}

func TestWithContextIsFunctional(t *testing.T) {
	orig := testChunks()[0]
	updated := orig.WithContext("Document: Official Rules (Page 1). ")

	// Original untouched
	assert.Empty(t, orig.ContextSummary)
	assert.Empty(t, orig.ContextualizedContent)

	assert.Equal(t, "Document: Official Rules (Page 1). ", updated.ContextSummary)
	assert.Equal(t,
		updated.ContextSummary+" "+orig.OriginalContent,
		updated.ContextualizedContent)
}

func TestIndexTextFallsBackToOriginal(t *testing.T) {
	c := testChunks()[0]
	assert.Equal(t, c.OriginalContent, c.IndexText())

	c = c.WithContext("summary")
	assert.Equal(t, c.ContextualizedContent, c.IndexText())
}
