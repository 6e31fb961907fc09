// Package ingest loads documents from disk and splits them into chunks
// for the indexing pipeline. Text and PDF files are supported.
package ingest

import (
	"fmt"
	"strings"

	"github.com/ctxrag/ctxrag/internal/store"
)

// Chunking defaults.
const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 200
)

// Chunker splits page text into overlapping character windows, preferring
// to break at paragraph and sentence boundaries.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. Non-positive parameters select defaults;
// overlap is capped below the chunk size.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &Chunker{size: size, overlap: overlap}
}

// Page is one unit of source text with its page number.
type Page struct {
	Number int
	Text   string
}

// ChunkDocument splits a document's pages into chunks. Chunk IDs are
// "{documentID}_chunk_{n}" with n counting across the whole document.
func (ck *Chunker) ChunkDocument(documentID, title string, pages []Page) []store.Chunk {
	chunks := make([]store.Chunk, 0)

	for _, page := range pages {
		for _, text := range ck.split(page.Text) {
			chunks = append(chunks, store.Chunk{
				ID:              fmt.Sprintf("%s_chunk_%d", documentID, len(chunks)),
				DocumentID:      documentID,
				DocumentTitle:   title,
				PageNumber:      page.Number,
				OriginalContent: text,
			})
		}
	}

	return chunks
}

// split cuts text into windows of at most size characters with overlap
// between consecutive windows.
func (ck *Chunker) split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= ck.size {
		return []string{text}
	}

	var out []string
	start := 0
	for start < len(text) {
		end := start + ck.size
		if end >= len(text) {
			piece := strings.TrimSpace(text[start:])
			if piece != "" {
				out = append(out, piece)
			}
			break
		}

		// Prefer a natural boundary in the second half of the window
		cut := findBreak(text[start:end])
		if cut > ck.size/2 {
			end = start + cut
		}

		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			out = append(out, piece)
		}

		next := end - ck.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return out
}

// findBreak returns the position just after the last paragraph break,
// sentence end, or space in the window, or the window length when none
// exists.
func findBreak(window string) int {
	if i := strings.LastIndex(window, "\n\n"); i >= 0 {
		return i + 2
	}
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if i := strings.LastIndex(window, sep); i >= 0 {
			return i + len(sep)
		}
	}
	if i := strings.LastIndex(window, " "); i >= 0 {
		return i + 1
	}
	return len(window)
}
