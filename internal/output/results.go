package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ctxrag/ctxrag/internal/search"
)

// resultJSON is the JSON shape of one search result.
type resultJSON struct {
	ChunkID        string  `json:"chunk_id"`
	DocumentID     string  `json:"document_id"`
	DocumentTitle  string  `json:"document_title"`
	PageNumber     int     `json:"page_number"`
	Content        string  `json:"content"`
	ContextSummary string  `json:"context_summary,omitempty"`
	CombinedScore  float64 `json:"combined_score"`
	DenseScore     float64 `json:"dense_score"`
	LexicalScore   float64 `json:"lexical_score"`
	RerankScore    float64 `json:"rerank_score"`
}

// ResultsJSON renders search results as a JSON array.
func (w *Writer) ResultsJSON(results []search.Result) error {
	out := make([]resultJSON, len(results))
	for i, r := range results {
		out[i] = resultJSON{
			ChunkID:        r.Chunk.ID,
			DocumentID:     r.Chunk.DocumentID,
			DocumentTitle:  r.Chunk.DocumentTitle,
			PageNumber:     r.Chunk.PageNumber,
			Content:        r.Chunk.OriginalContent,
			ContextSummary: r.Chunk.ContextSummary,
			CombinedScore:  r.CombinedScore,
			DenseScore:     r.DenseScore,
			LexicalScore:   r.LexicalScore,
			RerankScore:    r.RerankScore,
		}
	}

	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// snippetLength caps the content preview in text output.
const snippetLength = 200

// ResultsText renders search results for terminal reading.
func (w *Writer) ResultsText(query string, results []search.Result) {
	if len(results) == 0 {
		w.Dim("No results.")
		return
	}

	w.Header(fmt.Sprintf("Results for %q", query))
	w.Newline()

	for i, r := range results {
		title := fmt.Sprintf("%d. %s (p.%d)", i+1, r.Chunk.DocumentTitle, r.Chunk.PageNumber)
		scores := fmt.Sprintf("score %.3f  (dense %.3f, lexical %.3f, rerank %.1f)",
			r.CombinedScore, r.DenseScore, r.LexicalScore, r.RerankScore)

		w.Plain(w.styles.Title.Render(title))
		w.Plain("   " + w.styles.Score.Render(scores))
		w.Plain("   " + snippet(r.Chunk.OriginalContent, snippetLength))
		w.Newline()
	}
}

// snippet shortens text to a single display line.
func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= limit {
		return text
	}
	cut := strings.LastIndex(text[:limit], " ")
	if cut <= 0 {
		cut = limit
	}
	return text[:cut] + "…"
}
