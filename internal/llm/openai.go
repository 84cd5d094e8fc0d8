package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient wraps the go-openai chat completion API. A non-empty baseURL
// points it at any OpenAI-compatible endpoint.
type OpenAIClient struct {
	cli   *openai.Client
	model string
}

func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{cli: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAIClient) Name() string                { return "openai:" + o.model }
func (o *OpenAIClient) Close() error                { return nil }
func (o *OpenAIClient) CountTokens(text string) int { return CountTokens(text) }

func (o *OpenAIClient) Generate(ctx context.Context, req Request) (*Response, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	ccReq := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		ccReq.MaxTokens = req.MaxTokens
	}

	resp, err := o.cli.CreateChatCompletion(ctx, ccReq)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: no choices in response")
	}
	text := resp.Choices[0].Message.Content

	out := &Response{
		Text:         text,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	if out.InputTokens == 0 {
		out.InputTokens = o.CountTokens(req.System + req.Prompt)
	}
	if out.OutputTokens == 0 {
		out.OutputTokens = o.CountTokens(text)
	}
	return out, nil
}
