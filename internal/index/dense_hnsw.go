package index

import (
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/ctxrag/ctxrag/internal/store"
)

// HNSW graph parameters.
const (
	hnswM        = 16
	hnswEfSearch = 20
)

// HNSWVectorIndex is the approximate nearest-neighbor dense backend,
// built on coder/hnsw. Pure Go, no CGO. Exact search stays the default;
// this backend pays an accuracy cost for sublinear query time on large
// corpora.
type HNSWVectorIndex struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[uint64]
	keyMap     map[uint64]string
	built      bool
	dimensions int
}

var _ VectorIndex = (*HNSWVectorIndex)(nil)

// NewHNSWVectorIndex creates an empty HNSW vector index.
func NewHNSWVectorIndex() *HNSWVectorIndex {
	return &HNSWVectorIndex{}
}

func newGraph() *hnsw.Graph[uint64] {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = hnswM
	graph.EfSearch = hnswEfSearch
	graph.Ml = 0.25
	return graph
}

// Build replaces the graph with the given items.
func (h *HNSWVectorIndex) Build(items []VectorItem) error {
	graph := newGraph()
	keyMap := make(map[uint64]string, len(items))
	dimensions := 0

	var key uint64
	for _, item := range items {
		if len(item.Vector) == 0 {
			continue
		}
		if dimensions == 0 {
			dimensions = len(item.Vector)
		}
		if len(item.Vector) != dimensions {
			return store.ErrDimensionMismatch{
				Expected: dimensions,
				Got:      len(item.Vector),
			}
		}

		vec := make([]float32, len(item.Vector))
		copy(vec, item.Vector)
		normalizeInPlace(vec)

		graph.Add(hnsw.MakeNode(key, vec))
		keyMap[key] = item.ChunkID
		key++
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.graph = graph
	h.keyMap = keyMap
	h.built = true
	h.dimensions = dimensions
	return nil
}

// Search returns up to k approximate nearest chunks by cosine similarity.
func (h *HNSWVectorIndex) Search(query []float32, k int) ([]Hit, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.built || h.graph == nil || h.graph.Len() == 0 || len(query) == 0 {
		return []Hit{}, nil
	}
	if len(query) != h.dimensions {
		return nil, store.ErrDimensionMismatch{
			Expected: h.dimensions,
			Got:      len(query),
		}
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeInPlace(q)

	nodes := h.graph.Search(q, k)

	hits := make([]Hit, 0, len(nodes))
	for _, node := range nodes {
		id, ok := h.keyMap[node.Key]
		if !ok {
			continue
		}

		// Cosine distance is 1 - similarity; clamp like the exact backend
		score := 1 - float64(h.graph.Distance(q, node.Value))
		if score <= 0 {
			continue
		}
		if score > 1 {
			score = 1
		}
		hits = append(hits, Hit{ChunkID: id, Score: score})
	}

	sortHits(hits)
	return hits, nil
}

// Len returns the number of indexed vectors.
func (h *HNSWVectorIndex) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.graph == nil {
		return 0
	}
	return h.graph.Len()
}

// Built reports whether the index has been built.
func (h *HNSWVectorIndex) Built() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.built
}

// String describes the backend for logs.
func (h *HNSWVectorIndex) String() string {
	return fmt.Sprintf("hnsw(M=%d, efSearch=%d)", hnswM, hnswEfSearch)
}
