package index

import (
	"math"
	"sync"

	"github.com/ctxrag/ctxrag/internal/store"
)

// VectorItem is one entry of a dense index build: a chunk ID and its
// embedding. Chunks whose embedding failed are simply absent, so the
// index may hold fewer items than the chunk store.
type VectorItem struct {
	ChunkID string
	Vector  []float32
}

// VectorIndex scores chunks against a query embedding.
type VectorIndex interface {
	// Build replaces the index contents with the given items.
	Build(items []VectorItem) error

	// Search returns up to k nearest chunks by cosine similarity,
	// best first. An unbuilt index returns an empty result.
	Search(query []float32, k int) ([]Hit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Built reports whether the index has been built.
	Built() bool
}

// MemoryVectorIndex is the exact cosine-similarity backend. Vectors are
// normalized at build time so search is a dot product per item.
type MemoryVectorIndex struct {
	mu         sync.RWMutex
	built      bool
	chunkIDs   []string
	vectors    [][]float32
	dimensions int
}

var _ VectorIndex = (*MemoryVectorIndex)(nil)

// NewMemoryVectorIndex creates an empty exact-search vector index.
func NewMemoryVectorIndex() *MemoryVectorIndex {
	return &MemoryVectorIndex{}
}

// Build replaces the index contents. All vectors must share one dimension.
func (m *MemoryVectorIndex) Build(items []VectorItem) error {
	chunkIDs := make([]string, 0, len(items))
	vectors := make([][]float32, 0, len(items))
	dimensions := 0

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

		chunkIDs = append(chunkIDs, item.ChunkID)
		vectors = append(vectors, vec)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.built = true
	m.chunkIDs = chunkIDs
	m.vectors = vectors
	m.dimensions = dimensions
	return nil
}

// Search returns up to k hits by cosine similarity. Scores are clamped
// to [0, 1]; negative cosine means no meaningful match.
func (m *MemoryVectorIndex) Search(query []float32, k int) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.built || len(m.vectors) == 0 || len(query) == 0 {
		return []Hit{}, nil
	}
	if len(query) != m.dimensions {
		return nil, store.ErrDimensionMismatch{
			Expected: m.dimensions,
			Got:      len(query),
		}
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeInPlace(q)

	hits := make([]Hit, 0, len(m.vectors))
	for i, vec := range m.vectors {
		var dot float64
		for j := range vec {
			dot += float64(q[j]) * float64(vec[j])
		}
		if dot <= 0 {
			continue
		}
		if dot > 1 {
			dot = 1
		}
		hits = append(hits, Hit{ChunkID: m.chunkIDs[i], Score: dot})
	}

	sortHits(hits)
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (m *MemoryVectorIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Built reports whether the index has been built.
func (m *MemoryVectorIndex) Built() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.built
}

// normalizeInPlace scales a vector to unit length in place.
func normalizeInPlace(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
