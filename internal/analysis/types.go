package analysis

import (
	"time"

	"opinionpulse/internal/llm"
)

// Post is one collected social media record. It is owned by the collector
// and consumed read-only by the pipeline.
type Post struct {
	ID          string           `json:"id"`
	Platform    string           `json:"platform"`
	Content     string           `json:"content"`
	Author      string           `json:"author,omitempty"`
	Engagement  map[string]int64 `json:"engagement_metrics,omitempty"`
	CollectedAt time.Time        `json:"collected_at,omitempty"`
}

// SentimentResult is one per-post sentiment score, aligned with input order.
type SentimentResult struct {
	Score      int     `json:"score"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// OpinionCluster is one recurring theme extracted from the discussion.
type OpinionCluster struct {
	Label        string   `json:"label"`
	Summary      string   `json:"summary"`
	MentionCount int      `json:"mention_count"`
	SampleQuotes []string `json:"sample_quotes"`
}

// Report statuses.
const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
)

// AnalysisReport is the aggregated output of one pipeline run. It is created
// once per invocation and immutable after return.
type AnalysisReport struct {
	OverallSentiment float64           `json:"overall_sentiment"`
	SentimentResults []SentimentResult `json:"sentiment_results"`
	Clusters         []OpinionCluster  `json:"clusters"`
	Summary          string            `json:"summary"`
	Status           string            `json:"status"`
	Usage            llm.UsageSummary  `json:"usage"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// Sentiment label boundaries: score >= 60 positive, >= 40 neutral, below
// negative. Shared by validation and map-reduce aggregation.
func labelForScore(score int) string {
	switch {
	case score >= 60:
		return "positive"
	case score >= 40:
		return "neutral"
	default:
		return "negative"
	}
}

// DescribeSentiment maps a 0-100 score to a five-bucket description used to
// frame summarization prompts.
func DescribeSentiment(score float64) string {
	switch {
	case score >= 80:
		return "very positive"
	case score >= 60:
		return "positive"
	case score >= 40:
		return "neutral"
	case score >= 20:
		return "negative"
	default:
		return "very negative"
	}
}
