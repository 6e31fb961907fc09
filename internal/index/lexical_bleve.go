package index

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/ctxrag/ctxrag/internal/store"
)

const lexicalAnalyzerName = "retrieval_text"

// BleveLexicalIndex is the BM25 lexical backend. It trades the fitted
// TF-IDF vocabulary for bleve's inverted index; useful for larger corpora
// where refitting on every build gets expensive.
//
// BM25 scores are unbounded, so hits are normalized by the top score of
// each query to keep lexical scores in [0, 1] like the TF-IDF backend.
type BleveLexicalIndex struct {
	mu    sync.RWMutex
	index bleve.Index
	count int
	built bool
}

var _ LexicalIndex = (*BleveLexicalIndex)(nil)

// bleveDocument is the indexed document shape.
type bleveDocument struct {
	Content string `json:"content"`
}

// NewBleveLexicalIndex creates an in-memory bleve index.
func NewBleveLexicalIndex() (*BleveLexicalIndex, error) {
	idx, err := bleve.NewMemOnly(createLexicalMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return &BleveLexicalIndex{index: idx}, nil
}

// createLexicalMapping builds the index mapping: unicode tokenization,
// lowercasing, English stop words.
func createLexicalMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(lexicalAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			lowercase.Name,
			en.StopName,
		},
	})
	if err != nil {
		// Registration only fails on name collisions; fall back to the
		// standard analyzer
		return indexMapping
	}

	indexMapping.DefaultAnalyzer = lexicalAnalyzerName
	return indexMapping
}

// Build replaces the index contents with the given chunks. A fresh
// in-memory index is created on every build; incremental updates are not
// part of the batch pipeline.
func (b *BleveLexicalIndex) Build(chunks []store.Chunk) error {
	idx, err := bleve.NewMemOnly(createLexicalMapping())
	if err != nil {
		return fmt.Errorf("failed to create bleve index: %w", err)
	}

	batch := idx.NewBatch()
	for _, c := range chunks {
		doc := bleveDocument{Content: c.IndexText()}
		if err := batch.Index(c.ID, doc); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", c.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute index batch: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.index
	b.index = idx
	b.count = len(chunks)
	b.built = true

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Search returns up to k hits with normalized scores, best first.
func (b *BleveLexicalIndex) Search(query string, k int) ([]Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.built || strings.TrimSpace(query) == "" {
		return []Hit{}, nil
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("content")

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = k

	result, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}

	if len(result.Hits) == 0 {
		return []Hit{}, nil
	}

	top := result.Hits[0].Score
	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		if h.Score <= 0 {
			continue
		}
		score := h.Score
		if top > 0 {
			score /= top
		}
		hits = append(hits, Hit{ChunkID: h.ID, Score: score})
	}

	sortHits(hits)
	return hits, nil
}

// Len returns the number of indexed chunks.
func (b *BleveLexicalIndex) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Built reports whether the index has been built.
func (b *BleveLexicalIndex) Built() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.built
}

// Close releases the underlying bleve index.
func (b *BleveLexicalIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.index != nil {
		err := b.index.Close()
		b.index = nil
		return err
	}
	return nil
}
