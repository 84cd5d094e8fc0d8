package llm

import (
	"context"
	"strings"
)

// Request is a single completion request sent to a provider.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Response carries the model's text plus the token counts actually consumed.
// Providers that do not report usage fill the counts with CountTokens estimates.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Client is the provider-facing completion interface. Cross-cutting concerns
// (rate limiting, retries, caching, logging) are applied via Middleware.
type Client interface {
	Name() string
	CountTokens(text string) int
	Generate(ctx context.Context, req Request) (*Response, error)
	Close() error
}

// CountTokens is the shared length/4 token heuristic. It is deliberately
// rough; the only requirement is that it stays consistent within one run.
func CountTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	return len(text) / 4
}

type ctxKeyPhase struct{}
type ctxKeyUsage struct{}

// WithUsage scopes a usage tracker to the context. The gateway prefers it
// over its own tracker, so one shared gateway can account per run.
func WithUsage(ctx context.Context, t *UsageTracker) context.Context {
	return context.WithValue(ctx, ctxKeyUsage{}, t)
}

// UsageFrom returns the context-scoped usage tracker, or nil.
func UsageFrom(ctx context.Context) *UsageTracker {
	if v := ctx.Value(ctxKeyUsage{}); v != nil {
		if t, ok := v.(*UsageTracker); ok {
			return t
		}
	}
	return nil
}

// WithPhase tags the context with a phase label used in log lines.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// PhaseFrom returns the phase label stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyPhase{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
