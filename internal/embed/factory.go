package embed

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ctxrag/ctxrag/internal/config"
)

// NewEmbedder creates an embedder from configuration, wrapped in an LRU
// cache.
//
// Provider selection:
//   - "openai": requires the API key env var; falls back to static with a
//     warning when the key is absent (degraded mode, not an error)
//   - "static": deterministic hash embeddings, no network
//   - "": auto-detect, openai when the key is present, otherwise static
func NewEmbedder(cfg config.EmbeddingsConfig, apiKeyEnv string, logger *slog.Logger) (Embedder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if apiKeyEnv == "" {
		apiKeyEnv = "OPENAI_API_KEY"
	}
	apiKey := os.Getenv(apiKeyEnv)

	var inner Embedder
	switch cfg.Provider {
	case "openai":
		if apiKey == "" {
			logger.Warn("embedding api key not set, using static embeddings",
				"env", apiKeyEnv)
			inner = NewStaticEmbedder()
			break
		}
		inner = NewOpenAIEmbedder(apiKey, cfg.Model, cfg.Dimensions, cfg.BatchSize, logger)
	case "static":
		inner = NewStaticEmbedder()
	case "":
		if apiKey != "" {
			inner = NewOpenAIEmbedder(apiKey, cfg.Model, cfg.Dimensions, cfg.BatchSize, logger)
		} else {
			logger.Info("no embedding provider configured, using static embeddings")
			inner = NewStaticEmbedder()
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (use 'openai' or 'static')", cfg.Provider)
	}

	logger.Debug("embedder created",
		"model", inner.ModelName(),
		"dimensions", inner.Dimensions())

	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
