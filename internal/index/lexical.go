package index

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ctxrag/ctxrag/internal/store"
)

// Hit is a single index match.
type Hit struct {
	ChunkID string
	Score   float64
}

// LexicalIndex scores chunks against a query by term overlap.
type LexicalIndex interface {
	// Build fits the index over the chunk collection, replacing any
	// previous state.
	Build(chunks []store.Chunk) error

	// Search returns up to k hits with score > 0, best first.
	// An unbuilt index returns an empty result, not an error.
	Search(query string, k int) ([]Hit, error)

	// Len returns the number of indexed chunks.
	Len() int

	// Built reports whether the index has been fitted.
	Built() bool
}

// TF-IDF vectorizer parameters.
const (
	// MaxVocabulary caps the fitted vocabulary size. The most frequent
	// terms across the corpus are kept.
	MaxVocabulary = 10000

	// maxDocFreqRatio drops terms appearing in more than this fraction
	// of chunks; they behave like corpus-specific stop words.
	maxDocFreqRatio = 0.9
)

// wordPattern matches word tokens of two or more characters.
var wordPattern = regexp.MustCompile(`\w\w+`)

// TFIDFIndex is the in-memory fitted TF-IDF lexical index.
//
// Text is lowercased, tokenized, stop-word filtered, and expanded into
// unigrams and bigrams. The vocabulary and inverse document frequencies
// are fitted over the indexed chunks; queries are projected into the same
// space and scored by cosine similarity.
type TFIDFIndex struct {
	mu sync.RWMutex

	built    bool
	chunkIDs []string
	vocab    map[string]int
	idf      []float64
	// rows[i] is the L2-normalized sparse TF-IDF vector for chunk i
	rows []map[int]float64
}

var _ LexicalIndex = (*TFIDFIndex)(nil)

// NewTFIDFIndex creates an empty lexical index.
func NewTFIDFIndex() *TFIDFIndex {
	return &TFIDFIndex{}
}

// ngrams tokenizes text into unigrams and bigrams. Stop words are removed
// before bigram construction, matching standard vectorizer behavior.
func ngrams(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if !englishStopWords[w] {
			tokens = append(tokens, w)
		}
	}

	terms := make([]string, 0, len(tokens)*2)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// Build fits the vocabulary and IDF weights over the chunk collection.
// Each chunk is indexed by its contextualized content when present.
func (t *TFIDFIndex) Build(chunks []store.Chunk) error {
	termCounts := make([]map[string]int, len(chunks))
	docFreq := make(map[string]int)
	totalFreq := make(map[string]int)

	for i, c := range chunks {
		counts := make(map[string]int)
		for _, term := range ngrams(c.IndexText()) {
			counts[term]++
		}
		termCounts[i] = counts

		for term, n := range counts {
			docFreq[term]++
			totalFreq[term] += n
		}
	}

	// Drop near-ubiquitous terms, then cap the vocabulary at the most
	// frequent terms (ties broken alphabetically for determinism)
	maxDF := int(maxDocFreqRatio * float64(len(chunks)))
	if maxDF < 1 {
		maxDF = 1
	}

	candidates := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if len(chunks) > 1 && df > maxDF {
			continue
		}
		candidates = append(candidates, term)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if totalFreq[candidates[i]] != totalFreq[candidates[j]] {
			return totalFreq[candidates[i]] > totalFreq[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > MaxVocabulary {
		candidates = candidates[:MaxVocabulary]
	}

	vocab := make(map[string]int, len(candidates))
	for _, term := range candidates {
		vocab[term] = len(vocab)
	}

	// Smoothed IDF: ln((1+N)/(1+df)) + 1
	n := float64(len(chunks))
	idf := make([]float64, len(vocab))
	for term, col := range vocab {
		idf[col] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	rows := make([]map[int]float64, len(chunks))
	chunkIDs := make([]string, len(chunks))
	for i, c := range chunks {
		chunkIDs[i] = c.ID
		rows[i] = normalizeRow(projectRow(termCounts[i], vocab, idf))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.built = true
	t.chunkIDs = chunkIDs
	t.vocab = vocab
	t.idf = idf
	t.rows = rows
	return nil
}

// projectRow maps term counts into TF-IDF space.
func projectRow(counts map[string]int, vocab map[string]int, idf []float64) map[int]float64 {
	row := make(map[int]float64)
	for term, n := range counts {
		if col, ok := vocab[term]; ok {
			row[col] = float64(n) * idf[col]
		}
	}
	return row
}

// normalizeRow scales a sparse vector to unit L2 length.
func normalizeRow(row map[int]float64) map[int]float64 {
	var sum float64
	for _, v := range row {
		sum += v * v
	}
	if sum == 0 {
		return row
	}
	norm := math.Sqrt(sum)
	for col := range row {
		row[col] /= norm
	}
	return row
}

// Search projects the query into the fitted space and returns up to k
// chunks by cosine similarity. Only positive scores are returned.
func (t *TFIDFIndex) Search(query string, k int) ([]Hit, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.built || len(t.rows) == 0 {
		return []Hit{}, nil
	}

	counts := make(map[string]int)
	for _, term := range ngrams(query) {
		counts[term]++
	}
	qRow := normalizeRow(projectRow(counts, t.vocab, t.idf))
	if len(qRow) == 0 {
		return []Hit{}, nil
	}

	hits := make([]Hit, 0, len(t.rows))
	for i, row := range t.rows {
		// Both vectors are unit length, so the dot product is cosine
		var score float64
		for col, qv := range qRow {
			if dv, ok := row[col]; ok {
				score += qv * dv
			}
		}
		if score > 0 {
			hits = append(hits, Hit{ChunkID: t.chunkIDs[i], Score: score})
		}
	}

	sortHits(hits)
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// sortHits orders hits by descending score, breaking ties by chunk ID so
// equal-score results are stable across runs.
func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
}

// Len returns the number of indexed chunks.
func (t *TFIDFIndex) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Built reports whether the index has been fitted.
func (t *TFIDFIndex) Built() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.built
}
