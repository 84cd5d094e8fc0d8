package analysis

import "strings"

// Chunk is a token-bounded slice of a long document. Chunks are transient;
// they exist only while a map-reduce run is in flight.
type Chunk struct {
	Index         int
	Text          string
	TokenEstimate int
}

// SplitChunks walks the text sentence by sentence, accumulating tokens until
// the budget is reached, then closes the chunk and backs up roughly overlap
// tokens' worth of sentences as the start of the next one. A single sentence
// over the budget is placed in its own chunk verbatim, never dropped.
// Empty text yields a single empty chunk.
func SplitChunks(text string, maxTokensPerChunk, overlap int) []Chunk {
	if maxTokensPerChunk <= 0 {
		maxTokensPerChunk = 2000
	}
	if overlap < 0 || overlap >= maxTokensPerChunk {
		overlap = 0
	}
	if strings.TrimSpace(text) == "" {
		return []Chunk{{Index: 0, Text: "", TokenEstimate: 0}}
	}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		// No sentence boundaries at all; treat the whole text as one unit.
		sentences = []string{strings.TrimSpace(text)}
	}

	var chunks []Chunk
	start := 0
	for start < len(sentences) {
		tokens := 0
		end := start
		for end < len(sentences) {
			st := EstimateTokens(sentences[end]) + 1
			if tokens+st > maxTokensPerChunk && end > start {
				break
			}
			tokens += st
			end++
			// Oversized single sentence: it already owns this chunk.
			if st > maxTokensPerChunk {
				break
			}
		}

		body := strings.Join(sentences[start:end], ". ") + "."
		chunks = append(chunks, Chunk{
			Index:         len(chunks),
			Text:          body,
			TokenEstimate: EstimateTokens(body),
		})

		if end >= len(sentences) {
			break
		}

		// Back up whole sentences until roughly overlap tokens are covered.
		next := end
		covered := 0
		for next > start+1 && covered < overlap {
			next--
			covered += EstimateTokens(sentences[next]) + 1
		}
		start = next
	}
	return chunks
}
