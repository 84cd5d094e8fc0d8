package analysis

import (
	"fmt"
	"strings"
	"testing"
)

func TestSplitChunksRespectsBudget(t *testing.T) {
	// 50 sentences of roughly 100 tokens each, ~5000 tokens total.
	sentence := strings.Repeat("word ", 80)
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString(sentence)
		b.WriteString(". ")
	}

	chunks := SplitChunks(b.String(), 2000, 200)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks for ~5000 tokens at budget 2000, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.TokenEstimate > 2000+EstimateTokens(sentence) {
			t.Fatalf("chunk %d over budget: %d tokens", c.Index, c.TokenEstimate)
		}
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk indices not sequential: chunk %d has index %d", i, c.Index)
		}
	}
}

func TestSplitChunksOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "sentence%02d %s. ", i, strings.Repeat("tok ", 40))
	}
	chunks := SplitChunks(b.String(), 200, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Each chunk starts with sentences repeated from the previous chunk.
	for i := 1; i < len(chunks); i++ {
		cur := SplitSentences(chunks[i].Text)
		if len(cur) == 0 {
			t.Fatalf("chunk %d has no sentences", i)
		}
		if !strings.Contains(chunks[i-1].Text, cur[0]) {
			t.Fatalf("chunk %d does not overlap the previous chunk", i)
		}
	}
}

func TestSplitChunksOversizedSentence(t *testing.T) {
	huge := strings.Repeat("verylongword ", 300) // ~900 tokens
	text := "short one. " + huge + ". short two."

	chunks := SplitChunks(text, 100, 0)
	found := false
	for _, c := range chunks {
		if strings.Contains(c.Text, "verylongword") {
			found = true
		}
	}
	if !found {
		t.Fatal("oversized sentence was dropped instead of kept in its own chunk")
	}
}

func TestSplitChunksEmptyText(t *testing.T) {
	chunks := SplitChunks("   ", 2000, 200)
	if len(chunks) != 1 {
		t.Fatalf("expected a single empty chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "" || chunks[0].TokenEstimate != 0 {
		t.Fatalf("unexpected empty chunk: %+v", chunks[0])
	}
}

func TestSplitChunksSingleChunkUnderBudget(t *testing.T) {
	text := "first point. second point. third point."
	chunks := SplitChunks(text, 2000, 200)
	if len(chunks) != 1 {
		t.Fatalf("short text should fit one chunk, got %d", len(chunks))
	}
	if !containsAll(chunks[0].Text, "first point", "second point", "third point") {
		t.Fatalf("chunk lost content: %q", chunks[0].Text)
	}
}
