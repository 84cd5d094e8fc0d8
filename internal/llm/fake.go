package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

var itemLine = regexp.MustCompile(`(?m)^\d+\. `)

// FakeClient returns deterministic, minimal JSON payloads per phase for
// offline runs and tests. A non-nil Handler overrides the canned output.
type FakeClient struct {
	Handler func(ctx context.Context, req Request) (string, error)
}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string                { return "fake" }
func (f *FakeClient) Close() error                { return nil }
func (f *FakeClient) CountTokens(text string) int { return CountTokens(text) }

func (f *FakeClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if f.Handler != nil {
		text, err := f.Handler(ctx, req)
		if err != nil {
			return nil, err
		}
		return &Response{
			Text:         text,
			InputTokens:  f.CountTokens(req.System + req.Prompt),
			OutputTokens: f.CountTokens(text),
		}, nil
	}

	phase := PhaseFrom(ctx)
	var text string
	switch {
	case strings.HasPrefix(phase, "sentiment"):
		// One canned result per numbered item in the prompt.
		n := len(itemLine.FindAllString(req.Prompt, -1))
		if n == 0 {
			n = 1
		}
		results := make([]map[string]any, n)
		for i := range results {
			results[i] = map[string]any{
				"score":      50,
				"label":      "neutral",
				"confidence": 0.5,
				"reasoning":  "fake sentiment output",
			}
		}
		b, _ := json.Marshal(results)
		text = string(b)
	case strings.HasPrefix(phase, "clustering"):
		b, _ := json.Marshal(map[string]any{
			"clusters": []map[string]any{{
				"label":         "fake theme",
				"summary":       "fake cluster summary",
				"mention_count": 1,
				"sample_quotes": []string{"fake quote"},
			}},
		})
		text = string(b)
	case strings.HasPrefix(phase, "summary"):
		b, _ := json.Marshal(map[string]any{"summary": "fake discussion summary"})
		text = string(b)
	default:
		text = "{}"
	}

	return &Response{
		Text:         text,
		InputTokens:  f.CountTokens(req.System + req.Prompt),
		OutputTokens: f.CountTokens(text),
	}, nil
}
