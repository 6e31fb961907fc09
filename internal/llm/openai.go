package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ctxrag/ctxrag/internal/config"
	ragerr "github.com/ctxrag/ctxrag/internal/errors"
)

// OpenAIClient implements Completer using the OpenAI chat completions API.
type OpenAIClient struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

var _ Completer = (*OpenAIClient)(nil)

// NewOpenAIClient creates a chat-completion client for the given config.
func NewOpenAIClient(cfg config.LLMConfig, apiKey string, logger *slog.Logger) *OpenAIClient {
	model := cfg.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 150
	}

	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}

	return &OpenAIClient{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

// Complete sends a single-turn user prompt and returns the completion text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ragerr.New(ragerr.ErrCodeInvalidInput, "empty prompt", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       c.model,
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ragerr.New(ragerr.ErrCodeProviderTimeout,
				fmt.Sprintf("completion timed out after %s", c.timeout), err)
		}
		return "", ragerr.ProviderError("completion request failed", err)
	}

	if len(resp.Choices) == 0 {
		return "", ragerr.New(ragerr.ErrCodeResponseMalformed,
			"completion response has no choices", nil)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ModelName returns the configured completion model.
func (c *OpenAIClient) ModelName() string {
	return c.model
}

// Available reports whether the client can serve requests.
func (c *OpenAIClient) Available() bool {
	return true
}

// Close releases resources. The OpenAI client holds no persistent state.
func (c *OpenAIClient) Close() error {
	return nil
}

func errUnknownProvider(name string) error {
	return ragerr.New(ragerr.ErrCodeConfigInvalid,
		fmt.Sprintf("unknown llm provider: %s", name), nil).
		WithSuggestion("set llm.provider to 'openai' or 'none'")
}
