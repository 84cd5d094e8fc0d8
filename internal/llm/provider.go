package llm

import (
	"context"
	"fmt"
)

// ProviderConfig selects and tunes the backing completion service.
type ProviderConfig struct {
	Provider  string // gemini | openai | anthropic | fake
	APIKey    string
	BaseURL   string // openai-compatible endpoints only
	Model     string
	RPS       float64
	Burst     int
	CacheSize int
}

// NewClient builds the provider client and wraps it with the standard
// middleware chain: cache -> rate limit -> provider. Logging is left to the
// caller so tests stay quiet.
func NewClient(ctx context.Context, cfg ProviderConfig) (Client, error) {
	var base Client
	switch cfg.Provider {
	case "gemini":
		cli, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		base = cli
	case "openai":
		base = NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "anthropic":
		base = NewAnthropicClient(cfg.APIKey, cfg.Model, 0)
	case "fake", "":
		base = NewFakeClient()
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}

	return Wrap(base,
		WithCache(cfg.CacheSize),
		RateLimit(cfg.RPS, cfg.Burst),
	), nil
}
