package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type probe struct {
	Value string `json:"value"`
}

func newGatewayUnderTest(handler func(ctx context.Context, req Request) (string, error), retryMax int) (*Gateway, *UsageTracker) {
	usage := NewUsageTracker(RateFor("fake"))
	gw := NewGateway(&FakeClient{Handler: handler}, usage, GatewayOptions{
		RetryMax:  retryMax,
		BaseDelay: time.Millisecond,
	})
	return gw, usage
}

func TestCompleteRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int64
	gw, usage := newGatewayUnderTest(func(ctx context.Context, req Request) (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("rate limit exceeded")
		}
		return `{"value": "ok"}`, nil
	}, 3)

	var out probe
	if err := gw.Complete(context.Background(), "op", Request{Prompt: "p"}, &out); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Value != "ok" {
		t.Fatalf("unexpected result: %+v", out)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
	// Every attempt is recorded, failures with zero tokens.
	records := usage.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 usage records, got %d", len(records))
	}
	if records[0].InputTokens != 0 || records[0].OutputTokens != 0 {
		t.Fatalf("failed attempt should record zero tokens: %+v", records[0])
	}
	if records[2].OutputTokens == 0 {
		t.Fatalf("successful attempt should record tokens: %+v", records[2])
	}
}

func TestCompleteDoesNotRetryAuthErrors(t *testing.T) {
	var calls atomic.Int64
	gw, _ := newGatewayUnderTest(func(ctx context.Context, req Request) (string, error) {
		calls.Add(1)
		return "", errors.New("invalid api key")
	}, 5)

	var out probe
	err := gw.Complete(context.Background(), "op", Request{Prompt: "p"}, &out)
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Kind != KindAuth {
		t.Fatalf("expected auth kind, got %s", gwErr.Kind)
	}
	if calls.Load() != 1 {
		t.Fatalf("auth errors must not be retried, got %d attempts", calls.Load())
	}
}

func TestCompleteRepairsMalformedResponseOnce(t *testing.T) {
	var calls atomic.Int64
	gw, _ := newGatewayUnderTest(func(ctx context.Context, req Request) (string, error) {
		if calls.Add(1) == 1 {
			return "this is not json at all", nil
		}
		return `{"value": "repaired"}`, nil
	}, 3)

	var out probe
	if err := gw.Complete(context.Background(), "op", Request{Prompt: "p"}, &out); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Value != "repaired" {
		t.Fatalf("unexpected result: %+v", out)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected exactly one repair attempt, got %d calls", calls.Load())
	}
}

func TestCompleteGivesUpAfterFailedRepair(t *testing.T) {
	gw, _ := newGatewayUnderTest(func(ctx context.Context, req Request) (string, error) {
		return "still not json", nil
	}, 3)

	var out probe
	err := gw.Complete(context.Background(), "op", Request{Prompt: "p"}, &out)
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Kind != KindInvalidResponse {
		t.Fatalf("expected invalid_response kind, got %s", gwErr.Kind)
	}
}

func TestCompleteHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw, _ := newGatewayUnderTest(func(ctx context.Context, req Request) (string, error) {
		return "", errors.New("rate limit exceeded")
	}, 5)

	var out probe
	err := gw.Complete(ctx, "op", Request{Prompt: "p"}, &out)
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Kind != KindTimeout {
		t.Fatalf("expected timeout kind on canceled context, got %s", gwErr.Kind)
	}
}

func TestCompleteUsesContextScopedTracker(t *testing.T) {
	gw, shared := newGatewayUnderTest(func(ctx context.Context, req Request) (string, error) {
		return `{"value": "ok"}`, nil
	}, 1)

	scoped := NewUsageTracker(RateFor("fake"))
	ctx := WithUsage(context.Background(), scoped)

	var out probe
	if err := gw.Complete(ctx, "op", Request{Prompt: "p"}, &out); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if scoped.Summary().Calls != 1 {
		t.Fatalf("scoped tracker not used: %+v", scoped.Summary())
	}
	if shared.Summary().Calls != 0 {
		t.Fatalf("shared tracker should stay empty: %+v", shared.Summary())
	}
}
