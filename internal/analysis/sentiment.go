package analysis

import (
	"context"
	"fmt"

	"opinionpulse/internal/llm"
)

// SentimentStage scores every post 0-100. It never pre-filters: the
// sentiment of spam is still meaningful signal, so noise removal is left to
// the clustering and summary stages.
type SentimentStage struct {
	Gateway     *llm.Gateway
	BatchSize   int
	Concurrency int
}

// Fallback for posts that fail even the per-item retry. Keeps the overall
// score computable without silently dropping the post.
var sentimentFallback = SentimentResult{
	Score:      50,
	Label:      "neutral",
	Confidence: 0,
	Reasoning:  "analysis failed",
}

// Score returns one SentimentResult per post, aligned 1:1 with input order.
// It fails only when every model call failed; the pipeline treats that as a
// fatal error since sentiment is the mandatory stage.
func (s *SentimentStage) Score(ctx context.Context, posts []Post) ([]SentimentResult, error) {
	if len(posts) == 0 {
		return []SentimentResult{}, nil
	}

	items := make([]string, len(posts))
	for i, p := range posts {
		items[i] = Clean(p.Content, 500)
	}

	spec := BatchSpec[SentimentResult]{
		Operation:   "sentiment_batch",
		BatchSize:   s.BatchSize,
		Concurrency: s.Concurrency,
		FormatBatch: func(batch []string) llm.Request {
			return llm.Request{
				System:      sentimentSystemPrompt,
				Prompt:      sentimentBatchPrompt(batch),
				Temperature: 0.3,
			}
		},
		FormatItem: func(item string) llm.Request {
			return llm.Request{
				System:      sentimentSystemPrompt,
				Prompt:      sentimentItemPrompt(item),
				Temperature: 0.3,
			}
		},
		Default: sentimentFallback,
	}

	results, _, err := RunBatches(ctx, s.Gateway, items, spec)
	if err != nil {
		return nil, fmt.Errorf("sentiment stage: %w", err)
	}
	for i := range results {
		results[i] = validateSentiment(results[i])
	}
	return results, nil
}

// validateSentiment clamps the score into [0,100] and repairs missing or
// inconsistent fields the way the model sometimes returns them.
func validateSentiment(r SentimentResult) SentimentResult {
	if r.Score < 0 {
		r.Score = 0
	}
	if r.Score > 100 {
		r.Score = 100
	}
	switch r.Label {
	case "positive", "neutral", "negative":
	default:
		r.Label = labelForScore(r.Score)
	}
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
	if r.Reasoning == "" {
		r.Reasoning = "sentiment analysis completed"
	}
	return r
}

// OverallSentiment is the arithmetic mean of the scores, or 50.0 (neutral,
// not an error) when there are none.
func OverallSentiment(results []SentimentResult) float64 {
	if len(results) == 0 {
		return 50.0
	}
	sum := 0
	for _, r := range results {
		sum += r.Score
	}
	return float64(sum) / float64(len(results))
}
