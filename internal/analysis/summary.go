package analysis

import (
	"context"
	"fmt"
	"strings"

	"opinionpulse/internal/llm"
)

// Sentinels the pipeline ships instead of a missing summary.
const (
	SummaryUnavailable = "summary unavailable"
	SummaryNoContent   = "No substantial discussion found."
)

// SummaryStage produces a short natural-language synthesis of the
// discussion, framed by the already-computed overall sentiment. Like
// clustering it is optional: errors degrade the report, never abort it.
type SummaryStage struct {
	Gateway *llm.Gateway
	Filter  *ContentFilter

	SampleLimit       int
	ThresholdTokens   int
	MaxTokensPerChunk int
	ChunkOverlap      int
	Concurrency       int
}

type summaryEnvelope struct {
	Summary string `json:"summary"`
}

// Summarize returns the discussion summary. Above the token threshold it
// summarizes chunks independently, then merges the partials in one reduce
// call.
func (s *SummaryStage) Summarize(ctx context.Context, posts []Post, overallSentiment float64) (string, error) {
	limit := s.SampleLimit
	if limit <= 0 {
		limit = 30
	}

	filtered := s.Filter.Apply(posts)
	if len(filtered) == 0 {
		return SummaryNoContent, nil
	}
	sampled := SamplePrefix(filtered, limit)

	prompt := summaryPrompt(sampled, overallSentiment)
	if s.ThresholdTokens > 0 && EstimateTokens(prompt) > s.ThresholdTokens {
		return s.summarizeMapReduce(ctx, sampled, overallSentiment)
	}

	var env summaryEnvelope
	req := llm.Request{
		System:      summarySystemPrompt,
		Prompt:      prompt,
		Temperature: 0.6,
	}
	if err := s.Gateway.Complete(ctx, "summary", req, &env); err != nil {
		return "", fmt.Errorf("summary stage: %w", err)
	}
	if strings.TrimSpace(env.Summary) == "" {
		return "", fmt.Errorf("summary stage: %w", llm.ErrInvalidJSON)
	}
	return env.Summary, nil
}

func (s *SummaryStage) summarizeMapReduce(ctx context.Context, sampled []Post, overallSentiment float64) (string, error) {
	var doc strings.Builder
	for _, p := range sampled {
		doc.WriteString(Clean(p.Content, 400))
		doc.WriteString("\n")
	}
	chunks := SplitChunks(doc.String(), s.MaxTokensPerChunk, s.ChunkOverlap)

	mapFn := func(ctx context.Context, chunk Chunk) (string, error) {
		var env summaryEnvelope
		req := llm.Request{
			System:      summarySystemPrompt,
			Prompt:      summaryChunkPrompt(chunk, overallSentiment),
			Temperature: 0.6,
		}
		if err := s.Gateway.Complete(ctx, "summary_map", req, &env); err != nil {
			return "", err
		}
		return env.Summary, nil
	}
	reduceFn := func(ctx context.Context, partials []string) (string, error) {
		if len(partials) == 1 {
			return partials[0], nil
		}
		var env summaryEnvelope
		req := llm.Request{
			System:      summarySystemPrompt,
			Prompt:      summaryMergePrompt(partials),
			Temperature: 0.6,
		}
		if err := s.Gateway.Complete(ctx, "summary_reduce", req, &env); err != nil {
			return "", err
		}
		return env.Summary, nil
	}

	out, err := RunMapReduce(ctx, chunks, s.Concurrency, mapFn, reduceFn)
	if err != nil {
		return "", fmt.Errorf("summary stage: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("summary stage: %w", llm.ErrInvalidJSON)
	}
	return out, nil
}
