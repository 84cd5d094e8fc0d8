package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"opinionpulse/internal/llm"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	repeatedPunct = regexp.MustCompile(`([.!?])[.!?]+`)
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
)

// Clean strips formatting artifacts and truncates to at most maxLength
// characters, avoiding a mid-word cut where feasible. It never fails; empty
// input degrades to an empty string.
func Clean(text string, maxLength int) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = repeatedPunct.ReplaceAllString(text, "$1")
	text = strings.TrimSpace(text)
	if maxLength <= 0 || len(text) <= maxLength {
		return text
	}
	// Back up to a rune start so multibyte text is never cut mid-rune.
	end := maxLength
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	cut := text[:end]
	// Back up to the last space so a word is not cut in half, unless the
	// text has no space at all in the window.
	if i := strings.LastIndexByte(cut, ' '); i > maxLength/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ") + "..."
}

// EstimateTokens returns the run-consistent token approximation for text.
func EstimateTokens(text string) int {
	return llm.CountTokens(text)
}

// SplitSentences breaks text into trimmed, non-empty sentences.
func SplitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExtractKeySentences selects up to maxSentences sentences by a position
// heuristic (first, last, evenly spaced middle) to shrink input without
// discarding topic diversity. Short texts come back unchanged.
func ExtractKeySentences(text string, maxSentences int) string {
	if maxSentences <= 0 {
		return ""
	}
	sentences := SplitSentences(text)
	if len(sentences) <= maxSentences {
		return text
	}
	if maxSentences == 1 {
		return sentences[0] + "."
	}

	indices := map[int]struct{}{
		0:                  {},
		len(sentences) - 1: {},
	}
	step := len(sentences) / (maxSentences - 1)
	if step < 1 {
		step = 1
	}
	for i := 1; i < maxSentences-1; i++ {
		idx := i * step
		if idx > len(sentences)-1 {
			idx = len(sentences) - 1
		}
		indices[idx] = struct{}{}
	}

	selected := make([]string, 0, len(indices))
	for i, s := range sentences {
		if _, ok := indices[i]; ok {
			selected = append(selected, s)
		}
	}
	return strings.Join(selected, ". ") + "."
}
