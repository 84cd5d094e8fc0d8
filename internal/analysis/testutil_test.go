package analysis

import (
	"context"
	"strings"
	"testing"
	"time"

	"opinionpulse/internal/llm"
)

func newTestGateway(t *testing.T, handler func(ctx context.Context, req llm.Request) (string, error)) *llm.Gateway {
	t.Helper()
	usage := llm.NewUsageTracker(llm.RateFor("fake"))
	return llm.NewGateway(&llm.FakeClient{Handler: handler}, usage, llm.GatewayOptions{
		RetryMax:  1,
		BaseDelay: time.Millisecond,
	})
}

// longPost pads content past the clustering/summary minimum length filter.
func longPost(id, content string) Post {
	for len(content) < 60 {
		content += " with quite a lot of additional commentary attached"
	}
	return Post{ID: id, Platform: "test", Content: content}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
