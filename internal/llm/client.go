// Package llm adapts external text-completion services behind a single
// interface. Implementations are transport-only: no retries, no prompt
// knowledge. Retries coupled with validation feedback live one level up.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/askdb/askdb/internal/config"
)

// Request is one completion call. SQL generation uses temperature 0 so that
// retries stay meaningful; the answer step uses a higher temperature.
type Request struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

// New builds the configured provider client. The API key is required here:
// its absence is a startup-time fatal condition, not a per-request one.
func New(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropic(AnthropicConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case "openai":
		return NewOpenAI(OpenAIConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func defaultTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 30 * time.Second
	}
	return timeout
}
