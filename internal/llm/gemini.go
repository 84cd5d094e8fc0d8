package llm

import (
	"context"
	"fmt"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself; retries, rate limiting and
// logging are applied via Middleware.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string                { return "gemini:" + g.model }
func (g *GeminiClient) Close() error                { return nil }
func (g *GeminiClient) CountTokens(text string) int { return CountTokens(text) }

// Generate sends system+prompt and asks for application/json output.
func (g *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	full := req.Prompt
	if req.System != "" {
		full = req.System + "\n\n" + req.Prompt
	}

	temp := req.Temperature
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temp,
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		cfg,
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty candidates", ErrInvalidJSON)
	}
	text := resp.Candidates[0].Content.Parts[0].Text

	out := &Response{
		Text:         text,
		InputTokens:  g.CountTokens(full),
		OutputTokens: g.CountTokens(text),
	}
	if resp.UsageMetadata != nil {
		if resp.UsageMetadata.PromptTokenCount > 0 {
			out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		}
		if resp.UsageMetadata.CandidatesTokenCount > 0 {
			out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		}
	}
	return out, nil
}
