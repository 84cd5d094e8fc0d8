package analysis

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanCollapsesWhitespaceAndPunct(t *testing.T) {
	got := Clean("so   good!!!\n\nreally\tgood", 0)
	want := "so good! really good"
	if got != want {
		t.Fatalf("Clean: got %q want %q", got, want)
	}
}

func TestCleanTruncatesOnWordBoundary(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	got := Clean(text, 20)
	if len(got) > 20+len("...") {
		t.Fatalf("Clean returned %d chars: %q", len(got), got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated text should end with ellipsis: %q", got)
	}
	body := strings.TrimSuffix(got, "...")
	if strings.HasSuffix(body, "jum") {
		t.Fatalf("word cut in half: %q", got)
	}
}

func TestCleanTruncatesMultibyteOnRuneBoundary(t *testing.T) {
	text := strings.Repeat("日本語の投稿です", 40)
	got := Clean(text, 500)
	if !utf8.ValidString(got) {
		t.Fatalf("Clean produced invalid UTF-8: %q", got)
	}
	if len(got) > 500+len("...") {
		t.Fatalf("Clean returned %d bytes: %q", len(got), got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated text should end with ellipsis: %q", got)
	}
}

func TestCleanEmptyAndShortInput(t *testing.T) {
	if got := Clean("", 100); got != "" {
		t.Fatalf("empty input: got %q", got)
	}
	if got := Clean("short", 100); got != "short" {
		t.Fatalf("short input must pass through, got %q", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Fatalf("empty text: got %d tokens", got)
	}
	if got := EstimateTokens(strings.Repeat("a", 400)); got != 100 {
		t.Fatalf("400 chars: got %d tokens, want 100", got)
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("First. Second! Third? ")
	if len(got) != 3 {
		t.Fatalf("expected 3 sentences, got %d: %v", len(got), got)
	}
	if got[0] != "First" || got[1] != "Second" || got[2] != "Third" {
		t.Fatalf("unexpected sentences: %v", got)
	}
}

func TestExtractKeySentencesShortTextUnchanged(t *testing.T) {
	text := "One. Two."
	if got := ExtractKeySentences(text, 5); got != text {
		t.Fatalf("short text changed: %q", got)
	}
}

func TestExtractKeySentencesSingle(t *testing.T) {
	got := ExtractKeySentences("first point. second point. third point.", 1)
	if got != "first point." {
		t.Fatalf("expected the first sentence only, got %q", got)
	}
	if got := ExtractKeySentences("only one here.", 1); got != "only one here." {
		t.Fatalf("short text changed: %q", got)
	}
}

func TestExtractKeySentencesKeepsEnds(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("sentence number ")
		b.WriteByte(byte('0' + i))
		b.WriteString(". ")
	}
	got := ExtractKeySentences(b.String(), 3)
	if !strings.Contains(got, "sentence number 0") {
		t.Fatalf("first sentence dropped: %q", got)
	}
	if !strings.Contains(got, "sentence number 9") {
		t.Fatalf("last sentence dropped: %q", got)
	}
	if n := len(SplitSentences(got)); n > 3 {
		t.Fatalf("expected at most 3 sentences, got %d", n)
	}
}
