package embed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	ragerr "github.com/ctxrag/ctxrag/internal/errors"
)

// Defaults for the OpenAI embedding backend.
const (
	DefaultOpenAIModel      = "text-embedding-ada-002"
	DefaultOpenAIDimensions = 1536
	DefaultBatchSize        = 10
)

// OpenAIEmbedder generates embeddings via the OpenAI embeddings API.
// Requests are batched; the batch size matches the API's comfortable
// payload size rather than its hard limit.
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
	batchSize  int
	logger     *slog.Logger

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an embedder for the OpenAI API.
// Dimensions of 0 selects the model's native dimension.
func NewOpenAIEmbedder(apiKey, model string, dimensions, batchSize int, logger *slog.Logger) *OpenAIEmbedder {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if dimensions <= 0 {
		dimensions = DefaultOpenAIDimensions
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAIEmbedder{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		model:      model,
		dimensions: dimensions,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	results, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// EmbedBatch generates embeddings for multiple texts, in API batches.
// The result is positionally aligned with the input.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		// Transient API failures are retried with backoff before the
		// caller's per-chunk degradation kicks in
		slice := texts[start:end]
		batch, err := ragerr.RetryWithResult(ctx, ragerr.DefaultRetryConfig(), func() ([][]float32, error) {
			return e.embedBatchOnce(ctx, slice)
		})
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}

	return results, nil
}

func (e *OpenAIEmbedder) embedBatchOnce(ctx context.Context, texts []string) ([][]float32, error) {
	// The API rejects empty strings; substitute a single space so the
	// batch stays positionally aligned.
	inputs := make([]string, len(texts))
	for i, t := range texts {
		if t == "" {
			inputs[i] = " "
		} else {
			inputs[i] = t
		}
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: e.model,
	})
	if err != nil {
		return nil, ragerr.New(ragerr.ErrCodeEmbeddingFailed,
			"embedding request failed", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, ragerr.New(ragerr.ErrCodeResponseMalformed,
			fmt.Sprintf("embedding response has %d vectors for %d inputs",
				len(resp.Data), len(texts)), nil)
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the model identifier.
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// Available reports whether the embedder can serve requests.
func (e *OpenAIEmbedder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

// Close releases resources.
func (e *OpenAIEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
