package llm

import (
	"context"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient wraps the Anthropic Messages API.
type AnthropicClient struct {
	cli       *anthropic.Client
	model     string
	maxTokens int
}

func NewAnthropicClient(apiKey, model string, maxTokens int) *AnthropicClient {
	cl := anthropic.NewClient(anthropicopt.WithAPIKey(apiKey))
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &AnthropicClient{cli: &cl, model: model, maxTokens: maxTokens}
}

func (a *AnthropicClient) Name() string                { return "anthropic:" + a.model }
func (a *AnthropicClient) Close() error                { return nil }
func (a *AnthropicClient) CountTokens(text string) int { return CountTokens(text) }

func (a *AnthropicClient) Generate(ctx context.Context, req Request) (*Response, error) {
	full := req.Prompt
	if req.System != "" {
		full = req.System + "\n\n" + req.Prompt
	}
	maxTokens := a.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	msg, err := a.cli.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(full)),
		},
	})
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	text := b.String()

	out := &Response{
		Text:         text,
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
	if out.InputTokens == 0 {
		out.InputTokens = a.CountTokens(full)
	}
	if out.OutputTokens == 0 {
		out.OutputTokens = a.CountTokens(text)
	}
	return out, nil
}
