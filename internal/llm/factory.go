package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/mockview/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry, timeout and logging
// middleware, or (nil, nil) when text generation is disabled.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → retry → timeout → logging → base
	var p Provider = base
	if eventRepo != nil {
		p = WithLogging(p, eventRepo)
	}
	p = WithTimeout(p, cfg.Timeout)
	p = WithRetry(p, cfg.Retry)

	return p, nil
}
