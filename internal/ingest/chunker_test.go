package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkDocumentSmallPage(t *testing.T) {
	ck := NewChunker(0, 0)

	chunks := ck.ChunkDocument("rules", "Official Rules", []Page{
		{Number: 1, Text: "A short page."},
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, "rules_chunk_0", chunks[0].ID)
	assert.Equal(t, "rules", chunks[0].DocumentID)
	assert.Equal(t, "Official Rules", chunks[0].DocumentTitle)
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Equal(t, "A short page.", chunks[0].OriginalContent)
}

func TestChunkDocumentNumbersAcrossPages(t *testing.T) {
	ck := NewChunker(0, 0)

	chunks := ck.ChunkDocument("rules", "Official Rules", []Page{
		{Number: 1, Text: "Page one text."},
		{Number: 2, Text: "Page two text."},
	})

	require.Len(t, chunks, 2)
	assert.Equal(t, "rules_chunk_0", chunks[0].ID)
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Equal(t, "rules_chunk_1", chunks[1].ID)
	assert.Equal(t, 2, chunks[1].PageNumber)
}

func TestChunkerSplitsLongText(t *testing.T) {
	ck := NewChunker(100, 20)

	sentence := "The quick brown fox jumps over the lazy dog. "
	text := strings.Repeat(sentence, 20)

	pieces := ck.split(text)
	require.Greater(t, len(pieces), 1)

	for _, p := range pieces {
		assert.LessOrEqual(t, len(p), 100)
		assert.NotEmpty(t, strings.TrimSpace(p))
	}
}

func TestChunkerOverlapCarriesText(t *testing.T) {
	ck := NewChunker(100, 40)

	text := strings.Repeat("alpha beta gamma delta epsilon zeta. ", 15)
	pieces := ck.split(text)
	require.Greater(t, len(pieces), 1)

	// Consecutive pieces share some text through the overlap
	tail := pieces[0][len(pieces[0])-10:]
	assert.Contains(t, pieces[1], strings.TrimSpace(tail))
}

func TestChunkerPrefersSentenceBoundary(t *testing.T) {
	ck := NewChunker(80, 10)

	text := "First sentence here. Second sentence follows after. Third one is the longest of them all by a margin."
	pieces := ck.split(text)
	require.Greater(t, len(pieces), 1)

	assert.True(t, strings.HasSuffix(pieces[0], "."),
		"expected first piece to end at a sentence boundary, got %q", pieces[0])
}

func TestChunkerEmptyText(t *testing.T) {
	ck := NewChunker(0, 0)
	assert.Empty(t, ck.split("   \n "))
}

func TestChunkerTerminatesOnPathologicalOverlap(t *testing.T) {
	// Overlap near the chunk size must still make forward progress
	ck := NewChunker(50, 49)

	pieces := ck.split(strings.Repeat("x", 500))
	assert.NotEmpty(t, pieces)
}
