package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"opinionpulse/internal/llm"
)

func newTestPipeline(t *testing.T, handler func(ctx context.Context, req llm.Request) (string, error)) *Pipeline {
	t.Helper()
	usage := llm.NewUsageTracker(llm.RateFor("fake"))
	gw := llm.NewGateway(&llm.FakeClient{Handler: handler}, usage, llm.GatewayOptions{
		RetryMax:  1,
		BaseDelay: time.Millisecond,
	})
	return NewPipeline(gw, usage, PipelineOptions{
		BatchSize:    10,
		TopNClusters: 3,
		Concurrency:  2,
	})
}

func testPosts() []Post {
	return []Post{
		longPost("1", "the new update genuinely improved my daily workflow a great deal"),
		longPost("2", "mixed feelings here, some parts are better and some are worse now"),
		longPost("3", "support took forever to answer and the fix did not even work"),
	}
}

func TestAnalyzeCompleteReport(t *testing.T) {
	// nil handler uses the canned per-phase fake output
	p := newTestPipeline(t, nil)

	report, err := p.Analyze(context.Background(), testPosts())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Status != StatusComplete {
		t.Fatalf("expected complete status, got %s", report.Status)
	}
	if len(report.SentimentResults) != 3 {
		t.Fatalf("expected 3 sentiment results, got %d", len(report.SentimentResults))
	}
	if len(report.Clusters) == 0 {
		t.Fatal("expected clusters in the report")
	}
	if report.Summary == "" || report.Summary == SummaryUnavailable {
		t.Fatalf("unexpected summary: %q", report.Summary)
	}
	if report.Usage.Calls == 0 || report.Usage.TotalTokens == 0 {
		t.Fatalf("usage not recorded: %+v", report.Usage)
	}
	if report.Usage.TotalTokens != report.Usage.TotalInputTokens+report.Usage.TotalOutputTokens {
		t.Fatalf("usage totals inconsistent: %+v", report.Usage)
	}
	if report.GeneratedAt.IsZero() {
		t.Fatal("GeneratedAt not set")
	}
}

func TestAnalyzeClusteringFailureDegradesToPartial(t *testing.T) {
	fake := llm.NewFakeClient()
	p := newTestPipeline(t, func(ctx context.Context, req llm.Request) (string, error) {
		if strings.HasPrefix(llm.PhaseFrom(ctx), "clustering") {
			return "", errors.New("clustering backend down")
		}
		resp, err := fake.Generate(ctx, req)
		if err != nil {
			return "", err
		}
		return resp.Text, nil
	})

	report, err := p.Analyze(context.Background(), testPosts())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Status != StatusPartial {
		t.Fatalf("expected partial status, got %s", report.Status)
	}
	if len(report.Clusters) != 0 {
		t.Fatalf("expected empty clusters, got %d", len(report.Clusters))
	}
	if len(report.SentimentResults) != 3 {
		t.Fatalf("sentiment must survive clustering failure, got %d results", len(report.SentimentResults))
	}
}

func TestAnalyzeSummaryFailureShipsSentinel(t *testing.T) {
	fake := llm.NewFakeClient()
	p := newTestPipeline(t, func(ctx context.Context, req llm.Request) (string, error) {
		if strings.HasPrefix(llm.PhaseFrom(ctx), "summary") {
			return "", errors.New("summary backend down")
		}
		resp, err := fake.Generate(ctx, req)
		if err != nil {
			return "", err
		}
		return resp.Text, nil
	})

	report, err := p.Analyze(context.Background(), testPosts())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Status != StatusPartial {
		t.Fatalf("expected partial status, got %s", report.Status)
	}
	if report.Summary != SummaryUnavailable {
		t.Fatalf("expected %q, got %q", SummaryUnavailable, report.Summary)
	}
}

func TestAnalyzeTimeoutDegradesToPartial(t *testing.T) {
	// Sentiment answers immediately; clustering and summary hang until the
	// pipeline deadline cancels them.
	fake := llm.NewFakeClient()
	p := newTestPipeline(t, func(ctx context.Context, req llm.Request) (string, error) {
		phase := llm.PhaseFrom(ctx)
		if strings.HasPrefix(phase, "clustering") || strings.HasPrefix(phase, "summary") {
			<-ctx.Done()
			return "", ctx.Err()
		}
		resp, err := fake.Generate(ctx, req)
		if err != nil {
			return "", err
		}
		return resp.Text, nil
	})
	p.Timeout = 100 * time.Millisecond

	start := time.Now()
	report, err := p.Analyze(context.Background(), testPosts())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("timeout did not cancel in-flight calls, took %v", elapsed)
	}
	if report.Status != StatusPartial {
		t.Fatalf("expected partial status, got %s", report.Status)
	}
	if len(report.Clusters) != 0 {
		t.Fatalf("expected empty clusters after timeout, got %d", len(report.Clusters))
	}
	if report.Summary != SummaryUnavailable {
		t.Fatalf("expected %q, got %q", SummaryUnavailable, report.Summary)
	}
	if len(report.SentimentResults) != 3 {
		t.Fatalf("sentiment must survive the timeout, got %d results", len(report.SentimentResults))
	}
}

func TestAnalyzeSentimentFailureAborts(t *testing.T) {
	p := newTestPipeline(t, func(ctx context.Context, req llm.Request) (string, error) {
		return "", errors.New("everything is down")
	})

	_, err := p.Analyze(context.Background(), testPosts())
	var perr *PipelineError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if perr.Stage != "sentiment" {
		t.Fatalf("expected sentiment stage failure, got %q", perr.Stage)
	}
}

func TestAnalyzeEmptyPosts(t *testing.T) {
	p := newTestPipeline(t, func(ctx context.Context, req llm.Request) (string, error) {
		t.Error("no model call expected for empty input")
		return "", nil
	})

	report, err := p.Analyze(context.Background(), nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Status != StatusComplete {
		t.Fatalf("expected complete status, got %s", report.Status)
	}
	if report.OverallSentiment != 50.0 {
		t.Fatalf("expected neutral overall, got %.1f", report.OverallSentiment)
	}
	if report.Usage.Calls != 0 {
		t.Fatalf("expected zero calls, got %d", report.Usage.Calls)
	}
}

func TestAnalyzeEmitsProgress(t *testing.T) {
	p := newTestPipeline(t, nil)
	done := make(chan struct{})
	var events []string
	progressCh := make(chan string, 32)
	p.Progress = func(stage, event string) {
		progressCh <- stage + ":" + event
	}

	go func() {
		defer close(done)
		if _, err := p.Analyze(context.Background(), testPosts()); err != nil {
			t.Errorf("Analyze: %v", err)
		}
		close(progressCh)
	}()
	for e := range progressCh {
		events = append(events, e)
	}
	<-done

	want := map[string]bool{
		"sentiment:done":  false,
		"clustering:done": false,
		"summary:done":    false,
	}
	for _, e := range events {
		if _, ok := want[e]; ok {
			want[e] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Fatalf("missing progress event %q in %v", k, events)
		}
	}
}
