package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"opinionpulse/internal/llm"
)

func TestSummarizeNoSubstantialContent(t *testing.T) {
	gw := newTestGateway(t, func(ctx context.Context, req llm.Request) (string, error) {
		t.Error("no model call expected when every post is filtered")
		return "", nil
	})
	stage := &SummaryStage{Gateway: gw, Filter: NewContentFilter()}

	got, err := stage.Summarize(context.Background(), []Post{{ID: "1", Content: "hi"}}, 50)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != SummaryNoContent {
		t.Fatalf("got %q, want %q", got, SummaryNoContent)
	}
}

func TestSummarizeFramesOverallSentiment(t *testing.T) {
	var seenPrompt string
	gw := newTestGateway(t, func(ctx context.Context, req llm.Request) (string, error) {
		seenPrompt = req.Prompt
		return `{"summary": "a lively but mostly happy discussion"}`, nil
	})
	stage := &SummaryStage{Gateway: gw, Filter: NewContentFilter()}

	posts := []Post{longPost("1", "this release honestly exceeded what I expected from the team")}
	got, err := stage.Summarize(context.Background(), posts, 85)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "a lively but mostly happy discussion" {
		t.Fatalf("unexpected summary: %q", got)
	}
	if !strings.Contains(seenPrompt, DescribeSentiment(85)) {
		t.Fatalf("prompt does not frame the overall sentiment: %q", seenPrompt)
	}
}

func TestSummarizeEmptySummaryIsError(t *testing.T) {
	gw := newTestGateway(t, func(ctx context.Context, req llm.Request) (string, error) {
		return `{"summary": "  "}`, nil
	})
	stage := &SummaryStage{Gateway: gw, Filter: NewContentFilter()}

	posts := []Post{longPost("1", "an adequate amount of text to pass the minimum length filter")}
	_, err := stage.Summarize(context.Background(), posts, 50)
	if !errors.Is(err, llm.ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}
}
