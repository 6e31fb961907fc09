// Package llm provides chat-completion access for contextualization and
// reranking. Providers are selected from configuration; an absent provider
// is degraded mode, not an error, and callers fall back to deterministic
// behavior when no completer is available.
package llm

import (
	"context"
	"log/slog"

	"github.com/ctxrag/ctxrag/internal/config"
)

// Completer produces a single text completion for a prompt.
type Completer interface {
	// Complete sends a prompt and returns the raw completion text.
	Complete(ctx context.Context, prompt string) (string, error)

	// ModelName returns the model identifier used for completions.
	ModelName() string

	// Available reports whether the completer can serve requests.
	Available() bool

	// Close releases any resources held by the completer.
	Close() error
}

// NewCompleter creates a completer from configuration.
//
// A provider of "" or "none", or a missing API key, returns (nil, nil):
// the engine runs without LLM features rather than failing. Only a
// misconfigured provider name is an error.
func NewCompleter(cfg config.LLMConfig, logger *slog.Logger) (Completer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Provider {
	case "", "none":
		logger.Info("llm provider disabled, running in degraded mode")
		return nil, nil
	case "openai":
		key := cfg.APIKey()
		if key == "" {
			logger.Warn("llm api key not set, running in degraded mode",
				"env", cfg.APIKeyEnv)
			return nil, nil
		}
		return NewOpenAIClient(cfg, key, logger), nil
	default:
		return nil, errUnknownProvider(cfg.Provider)
	}
}
