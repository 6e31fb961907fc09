package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	ragerr "github.com/ctxrag/ctxrag/internal/errors"
)

// ChunkRecord is the on-disk representation of a chunk with its derived
// artifacts. The flat list-of-records JSON file is the only persistence
// format the retrieval core defines; databases and web layers are external.
type ChunkRecord struct {
	ChunkID               string    `json:"chunk_id"`
	DocumentID            string    `json:"document_id"`
	DocumentTitle         string    `json:"document_title"`
	PageNumber            int       `json:"page_number"`
	OriginalContent       string    `json:"original_content"`
	ContextualizedContent string    `json:"contextualized_content"`
	ContextSummary        string    `json:"context_summary"`
	Embedding             []float32 `json:"embedding"`
	BM25Score             float64   `json:"bm25_score"`
	RerankScore           float64   `json:"rerank_score"`
}

// ToRecord converts a chunk to its persisted record form.
func ToRecord(c Chunk) ChunkRecord {
	return ChunkRecord{
		ChunkID:               c.ID,
		DocumentID:            c.DocumentID,
		DocumentTitle:         c.DocumentTitle,
		PageNumber:            c.PageNumber,
		OriginalContent:       c.OriginalContent,
		ContextualizedContent: c.ContextualizedContent,
		ContextSummary:        c.ContextSummary,
		Embedding:             c.Embedding,
		BM25Score:             c.LexicalScore,
		RerankScore:           c.RerankScore,
	}
}

// FromRecord converts a persisted record back to a chunk.
func FromRecord(r ChunkRecord) Chunk {
	return Chunk{
		ID:                    r.ChunkID,
		DocumentID:            r.DocumentID,
		DocumentTitle:         r.DocumentTitle,
		PageNumber:            r.PageNumber,
		OriginalContent:       r.OriginalContent,
		ContextSummary:        r.ContextSummary,
		ContextualizedContent: r.ContextualizedContent,
		Embedding:             r.Embedding,
		LexicalScore:          r.BM25Score,
		RerankScore:           r.RerankScore,
	}
}

// SaveRecords writes chunks to path as a flat JSON list of records.
// The write is atomic: data goes to a temp file in the same directory,
// then renames over the target, so readers never observe a partial file.
func SaveRecords(path string, chunks []Chunk) error {
	records := make([]ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = ToRecord(c)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return ragerr.Wrap(ragerr.ErrCodeInternal, fmt.Errorf("marshal chunk records: %w", err))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ragerr.Wrap(ragerr.ErrCodeFilePermission, fmt.Errorf("create artifact directory: %w", err))
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return ragerr.Wrap(ragerr.ErrCodeFilePermission, fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return ragerr.Wrap(ragerr.ErrCodeFilePermission, fmt.Errorf("write chunk records: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return ragerr.Wrap(ragerr.ErrCodeFilePermission, fmt.Errorf("close temp file: %w", err))
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return ragerr.Wrap(ragerr.ErrCodeFilePermission, fmt.Errorf("rename chunk records: %w", err))
	}

	return nil
}

// LoadRecords reads a flat JSON list of records from path.
// A missing file is an ErrCodeFileNotFound error; a present but unparseable
// file is ErrCodeArtifactCorrupt (a rebuild is the only recovery).
func LoadRecords(path string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ragerr.New(ragerr.ErrCodeFileNotFound,
				fmt.Sprintf("chunk records not found at %s", path), err).
				WithSuggestion("run 'ctxrag index' first")
		}
		return nil, ragerr.Wrap(ragerr.ErrCodeFilePermission, err)
	}

	var records []ChunkRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, ragerr.New(ragerr.ErrCodeArtifactCorrupt,
			fmt.Sprintf("chunk records at %s are not valid JSON", path), err).
			WithSuggestion("delete the file and run 'ctxrag index' to rebuild")
	}

	chunks := make([]Chunk, len(records))
	for i, r := range records {
		chunks[i] = FromRecord(r)
	}
	return chunks, nil
}
