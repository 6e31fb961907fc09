package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxrag/ctxrag/internal/search"
	"github.com/ctxrag/ctxrag/internal/store"
)

func sampleResults() []search.Result {
	return []search.Result{
		{
			Chunk: store.Chunk{
				ID:              "rules_chunk_0",
				DocumentID:      "rules",
				DocumentTitle:   "Official Rules",
				PageNumber:      3,
				OriginalContent: "The ghost runner rule applies in extra innings.",
				ContextSummary:  "Document: Official Rules (Page 3). ",
			},
			CombinedScore: 0.84,
			DenseScore:    0.9,
			LexicalScore:  0.75,
			RerankScore:   8,
		},
	}
}

func TestResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	require.NoError(t, w.ResultsJSON(sampleResults()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)

	assert.Equal(t, "rules_chunk_0", decoded[0]["chunk_id"])
	assert.Equal(t, "Official Rules", decoded[0]["document_title"])
	assert.Equal(t, float64(3), decoded[0]["page_number"])
	assert.Equal(t, 0.84, decoded[0]["combined_score"])
	assert.Equal(t, float64(8), decoded[0]["rerank_score"])
}

func TestResultsJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	require.NoError(t, w.ResultsJSON(nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestResultsText(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.ResultsText("ghost runner", sampleResults())

	out := buf.String()
	assert.Contains(t, out, `Results for "ghost runner"`)
	assert.Contains(t, out, "Official Rules (p.3)")
	assert.Contains(t, out, "score 0.840")
	assert.Contains(t, out, "ghost runner rule")
}

func TestResultsTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.ResultsText("anything", nil)
	assert.Contains(t, buf.String(), "No results.")
}

func TestStatusMessages(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Successf("indexed %d chunks", 42)
	w.Warning("running without an API key")
	w.Errorf("failed to open %s", "file.pdf")

	out := buf.String()
	assert.Contains(t, out, "indexed 42 chunks")
	assert.Contains(t, out, "running without an API key")
	assert.Contains(t, out, "failed to open file.pdf")
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("word ", 100)
	s := snippet(long, 50)
	assert.LessOrEqual(t, len(s), 54)
	assert.True(t, strings.HasSuffix(s, "…"))

	assert.Equal(t, "short text", snippet("short   text", 50))
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Progress(15, 30, "embedding")
	assert.Contains(t, buf.String(), "50%")

	buf.Reset()
	w.Progress(30, 30, "embedding")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}
