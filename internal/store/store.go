package store

import (
	"fmt"
	"sort"
	"sync"
)

// ChunkStore is the in-memory chunk collection the indexes are built over.
//
// Chunk order is preserved from insertion: the lexical index rows and the
// embedding list stay aligned with this ordering, so a rebuild of one
// without the other invalidates search until both are regenerated.
type ChunkStore struct {
	mu        sync.RWMutex
	chunks    []Chunk
	byID      map[string]int
	documents map[string]*Document
}

// NewChunkStore creates an empty chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		byID:      make(map[string]int),
		documents: make(map[string]*Document),
	}
}

// Add appends chunks to the store, registering their documents.
// A chunk whose ID already exists replaces the previous version in place,
// keeping its position so index alignment survives re-contextualization.
func (s *ChunkStore) Add(chunks ...Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		if c.ID == "" {
			return fmt.Errorf("chunk has empty ID (document %q)", c.DocumentID)
		}
		if c.DocumentID == "" {
			return fmt.Errorf("chunk %q has empty document ID", c.ID)
		}

		if pos, ok := s.byID[c.ID]; ok {
			s.chunks[pos] = c
			continue
		}

		s.byID[c.ID] = len(s.chunks)
		s.chunks = append(s.chunks, c)

		doc, ok := s.documents[c.DocumentID]
		if !ok {
			doc = &Document{ID: c.DocumentID, Title: c.DocumentTitle}
			s.documents[c.DocumentID] = doc
		}
		doc.ChunkCount++
	}

	return nil
}

// Replace swaps the entire chunk collection. Used after a batch
// contextualization pass produces updated copies of every chunk.
func (s *ChunkStore) Replace(chunks []Chunk) error {
	fresh := NewChunkStore()
	if err := fresh.Add(chunks...); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = fresh.chunks
	s.byID = fresh.byID
	s.documents = fresh.documents
	return nil
}

// Chunks returns a copy of the chunk slice in store order.
func (s *ChunkStore) Chunks() []Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Get returns the chunk with the given ID.
func (s *ChunkStore) Get(id string) (Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.byID[id]
	if !ok {
		return Chunk{}, false
	}
	return s.chunks[pos], true
}

// ByDocument returns the chunks belonging to a document, in store order.
func (s *ChunkStore) ByDocument(documentID string) []Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Chunk, 0)
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out
}

// Documents returns the registered documents sorted by ID.
func (s *ChunkStore) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0, len(s.documents))
	for _, d := range s.documents {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of chunks in the store.
func (s *ChunkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}
