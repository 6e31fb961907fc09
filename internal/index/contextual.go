// Package index provides contextual retrieval: each chunk is enriched with
// an LLM-generated situating summary before indexing, then served by a
// fitted TF-IDF lexical index and a dense vector index.
//
// Based on Anthropic's contextual retrieval research.
// See: https://www.anthropic.com/news/contextual-retrieval
package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ctxrag/ctxrag/internal/llm"
	"github.com/ctxrag/ctxrag/internal/store"
)

// Contextualization defaults.
const (
	// DefaultDocContextChars caps the document text included in the
	// contextualization prompt.
	DefaultDocContextChars = 16000

	// truncationMarker is appended when document text is cut at the cap.
	truncationMarker = "...[truncated]"
)

// contextPromptTemplate asks for a short situating summary.
// The document text goes first so providers can cache the shared prefix
// across the document's chunks.
const contextPromptTemplate = `<document>
%s
</document>

Here is the chunk we want to situate within the whole document:

<chunk>
%s
</chunk>

Instructions:
- Give a short succinct context to situate this chunk within the overall document for the purposes of improving search retrieval of the chunk
- 1-2 sentences
- Output ONLY the context, no preamble

Context:`

// Contextualizer derives a situating summary for each chunk.
//
// Contextualization never fails: when no completer is configured, or a
// completion errors or parses to nothing, the deterministic fallback
// summary is used and the failure is logged. Input chunks are never
// mutated; an enriched copy is returned.
type Contextualizer struct {
	completer llm.Completer
	maxChars  int
	logger    *slog.Logger
}

// NewContextualizer creates a contextualizer. A nil completer selects
// fallback-only operation.
func NewContextualizer(completer llm.Completer, maxChars int, logger *slog.Logger) *Contextualizer {
	if maxChars <= 0 {
		maxChars = DefaultDocContextChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Contextualizer{
		completer: completer,
		maxChars:  maxChars,
		logger:    logger,
	}
}

// FallbackContext is the deterministic summary used when no LLM summary
// is available. Identical inputs always produce identical output.
func FallbackContext(c store.Chunk) string {
	return fmt.Sprintf("Document: %s (Page %d). ", c.DocumentTitle, c.PageNumber)
}

// BuildDocumentContext concatenates a document's chunks into the text
// passed to the contextualization prompt, capped at maxChars with a
// truncation marker.
func (cz *Contextualizer) BuildDocumentContext(chunks []store.Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(c.OriginalContent)
		if b.Len() > cz.maxChars {
			break
		}
	}

	text := b.String()
	if len(text) > cz.maxChars {
		text = text[:cz.maxChars] + truncationMarker
	}
	return text
}

// Contextualize returns a copy of the chunk enriched with a situating
// summary. docContext is the output of BuildDocumentContext for the
// chunk's document.
func (cz *Contextualizer) Contextualize(ctx context.Context, c store.Chunk, docContext string) store.Chunk {
	if cz.completer == nil {
		return c.WithContext(FallbackContext(c))
	}

	prompt := fmt.Sprintf(contextPromptTemplate, docContext, c.OriginalContent)

	raw, err := cz.completer.Complete(ctx, prompt)
	if err != nil {
		cz.logger.Warn("context generation failed, using fallback",
			"chunk", c.ID, "error", err)
		return c.WithContext(FallbackContext(c))
	}

	reply := llm.ParseSummaryReply(raw)
	if !reply.OK {
		cz.logger.Warn("context generation returned empty reply, using fallback",
			"chunk", c.ID)
		return c.WithContext(FallbackContext(c))
	}

	return c.WithContext(reply.Text)
}

// ContextualizeDocument contextualizes all chunks of one document,
// building the shared document context once.
func (cz *Contextualizer) ContextualizeDocument(ctx context.Context, chunks []store.Chunk) []store.Chunk {
	docContext := cz.BuildDocumentContext(chunks)

	out := make([]store.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = cz.Contextualize(ctx, c, docContext)
	}
	return out
}

// Available reports whether LLM contextualization is active.
func (cz *Contextualizer) Available() bool {
	return cz.completer != nil && cz.completer.Available()
}
