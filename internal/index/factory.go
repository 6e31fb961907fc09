package index

import (
	"fmt"

	"github.com/ctxrag/ctxrag/internal/config"
)

// NewLexicalIndex creates a lexical backend from configuration.
func NewLexicalIndex(cfg config.SearchConfig) (LexicalIndex, error) {
	switch cfg.LexicalBackend {
	case "", "memory":
		return NewTFIDFIndex(), nil
	case "bleve":
		return NewBleveLexicalIndex()
	default:
		return nil, fmt.Errorf("unknown lexical backend: %s (use 'memory' or 'bleve')", cfg.LexicalBackend)
	}
}

// NewVectorIndex creates a dense backend from configuration.
func NewVectorIndex(cfg config.SearchConfig) (VectorIndex, error) {
	switch cfg.VectorBackend {
	case "", "memory":
		return NewMemoryVectorIndex(), nil
	case "hnsw":
		return NewHNSWVectorIndex(), nil
	default:
		return nil, fmt.Errorf("unknown vector backend: %s (use 'memory' or 'hnsw')", cfg.VectorBackend)
	}
}
