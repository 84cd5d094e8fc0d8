package llm

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestWithCacheDeduplicatesIdenticalRequests(t *testing.T) {
	var calls atomic.Int64
	inner := &FakeClient{Handler: func(ctx context.Context, req Request) (string, error) {
		calls.Add(1)
		return `{"ok": true}`, nil
	}}
	client := Wrap(inner, WithCache(16))

	req := Request{System: "s", Prompt: "p", Temperature: 0.3}
	for i := 0; i < 3; i++ {
		if _, err := client.Generate(context.Background(), req); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls.Load())
	}

	// A different prompt misses the cache.
	other := req
	other.Prompt = "different"
	if _, err := client.Generate(context.Background(), other); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected cache miss for different prompt, got %d calls", calls.Load())
	}
}

func TestWithCacheDisabledBySize(t *testing.T) {
	var calls atomic.Int64
	inner := &FakeClient{Handler: func(ctx context.Context, req Request) (string, error) {
		calls.Add(1)
		return "{}", nil
	}}
	client := Wrap(inner, WithCache(0))

	req := Request{Prompt: "p"}
	for i := 0; i < 2; i++ {
		if _, err := client.Generate(context.Background(), req); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("cache should be disabled at size 0, got %d calls", calls.Load())
	}
}
