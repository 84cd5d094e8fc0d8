package analysis

import (
	"fmt"
	"strings"
)

const sentimentSystemPrompt = `You are a sentiment analysis expert. Analyze the sentiment of social media posts on a 0-100 scale.

Score guide (0-100):
- 0-20: Extremely negative (hate, anger, disgust)
- 21-40: Negative (disappointment, frustration)
- 41-60: Neutral (objective, balanced, mild opinions)
- 61-80: Positive (satisfaction, approval)
- 81-100: Extremely positive (love, excitement, enthusiasm)

Consider the overall emotional tone, specific keywords, context, and sarcasm.`

const sentimentBatchFormat = `Respond with ONLY a valid JSON array, one object per post, in post order.
Each object must have: score (0-100), label (positive/negative/neutral), confidence (0-1), reasoning (brief).

Example object:
{"score": 90, "label": "positive", "confidence": 0.95, "reasoning": "Strong positive word with exclamation"}`

const sentimentItemFormat = `Respond with ONLY a valid JSON object with: score (0-100), label (positive/negative/neutral), confidence (0-1), reasoning (brief).`

func sentimentBatchPrompt(items []string) string {
	var b strings.Builder
	b.WriteString(sentimentBatchFormat)
	b.WriteString("\n\nNow analyze these posts:\n")
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, item)
	}
	b.WriteString("\n\nResponse (JSON array only):")
	return b.String()
}

func sentimentItemPrompt(item string) string {
	return sentimentItemFormat + "\n\nNow analyze this post:\n\n" + item +
		"\n\nResponse (JSON object only):"
}

const clusteringSystemPrompt = `You are an expert at identifying and clustering opinions.
Analyze the given posts and identify the main themes/opinions being discussed.

Respond with ONLY a JSON object in this format:
{
  "clusters": [
    {
      "label": "<brief theme label>",
      "summary": "<2-3 sentence summary>",
      "mention_count": <number of posts mentioning this>,
      "sample_quotes": ["<representative quote 1>", "<representative quote 2>"]
    }
  ]
}

Focus on:
- Distinct themes and topics
- Points of agreement or controversy
- Common concerns or praise
- Notable trends or patterns`

func clusteringPrompt(posts []Post, topN int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these %d social media posts and identify the top %d opinion clusters:\n",
		len(posts), topN)
	for i, p := range posts {
		fmt.Fprintf(&b, "\n%d. %s", i+1, Clean(p.Content, 300))
	}
	return b.String()
}

func clusteringChunkPrompt(chunk Chunk, topN int) string {
	return fmt.Sprintf(
		"Analyze this portion of a larger social media discussion and identify up to %d opinion clusters:\n\n%s",
		topN, chunk.Text)
}

func clusteringMergePrompt(partials [][]OpinionCluster, topN int) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"The following opinion clusters were extracted from different portions of one discussion. "+
			"Merge overlapping themes and return the top %d clusters overall, summing mention counts "+
			"for merged themes:\n", topN)
	for i, clusters := range partials {
		fmt.Fprintf(&b, "\nPortion %d:\n", i+1)
		for _, c := range clusters {
			fmt.Fprintf(&b, "- %s (%d mentions): %s\n", c.Label, c.MentionCount, c.Summary)
		}
	}
	return b.String()
}

const summarySystemPrompt = `You are an expert at synthesizing social media discussions.
Create a clear, concise summary that captures:
- Main topics being discussed
- Overall sentiment (positive/negative/mixed)
- Key points of consensus or controversy
- Notable trends or patterns

Write in a natural, human-readable style. Avoid lists and bullet points.
Keep the summary to 2-3 paragraphs maximum.

Respond with ONLY a JSON object: {"summary": "<your summary>"}`

func summaryPrompt(posts []Post, overallSentiment float64) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"Summarize this social media discussion with an overall sentiment of %s (%.0f/100).\n\nHere are %d representative posts:\n",
		DescribeSentiment(overallSentiment), overallSentiment, len(posts))
	for i, p := range posts {
		fmt.Fprintf(&b, "\n%d. %s", i+1, Clean(p.Content, 400))
	}
	return b.String()
}

func summaryChunkPrompt(chunk Chunk, overallSentiment float64) string {
	return fmt.Sprintf(
		"Summarize this portion of a social media discussion (overall discussion sentiment: %s, %.0f/100):\n\n%s",
		DescribeSentiment(overallSentiment), overallSentiment, chunk.Text)
}

func summaryMergePrompt(partials []string) string {
	var b strings.Builder
	b.WriteString("Combine these partial summaries of one discussion into a single coherent summary of 2-3 paragraphs:\n")
	for i, s := range partials {
		fmt.Fprintf(&b, "\nPart %d: %s\n", i+1, s)
	}
	return b.String()
}
