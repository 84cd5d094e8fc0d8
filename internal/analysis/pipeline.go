package analysis

import (
	"context"
	"fmt"
	"log"
	"time"

	"opinionpulse/internal/llm"
)

// PipelineError is the single error type a pipeline invocation can surface.
// Callers always get either a full report (possibly partial) or this.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline: %s stage failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// ProgressFunc receives stage lifecycle events ("sentiment", "done").
type ProgressFunc func(stage, event string)

// Pipeline sequences sentiment, clustering and summarization over one post
// set and aggregates their outputs into an AnalysisReport.
//
// Sentiment is mandatory: its total failure aborts the run. Clustering and
// summary are each independently optional; a failure there degrades the
// report to status partial instead of aborting.
type Pipeline struct {
	Sentiment  *SentimentStage
	Clustering *ClusteringStage
	Summary    *SummaryStage

	// Usage supplies the cost rate; each Analyze call accounts into its
	// own fresh tracker so concurrent runs never mix token counts.
	Usage *llm.UsageTracker

	// Timeout bounds the whole run; in-flight gateway calls are canceled
	// when it elapses. Zero means no pipeline-level timeout.
	Timeout time.Duration

	// Progress, when set, receives stage transitions (used by the watch
	// endpoint). Never called after Analyze returns.
	Progress ProgressFunc
}

// PipelineOptions carries the tuning knobs shared by all three stages.
type PipelineOptions struct {
	BatchSize         int
	MaxTokensPerChunk int
	ChunkOverlap      int
	MapReduceTokens   int
	TopNClusters      int
	Concurrency       int
	Timeout           time.Duration
}

// NewPipeline wires the three stages onto one gateway and usage tracker.
func NewPipeline(gw *llm.Gateway, usage *llm.UsageTracker, opts PipelineOptions) *Pipeline {
	filter := NewContentFilter()
	return &Pipeline{
		Sentiment: &SentimentStage{
			Gateway:     gw,
			BatchSize:   opts.BatchSize,
			Concurrency: opts.Concurrency,
		},
		Clustering: &ClusteringStage{
			Gateway:           gw,
			Filter:            filter,
			TopN:              opts.TopNClusters,
			ThresholdTokens:   opts.MapReduceTokens,
			MaxTokensPerChunk: opts.MaxTokensPerChunk,
			ChunkOverlap:      opts.ChunkOverlap,
			Concurrency:       opts.Concurrency,
		},
		Summary: &SummaryStage{
			Gateway:           gw,
			Filter:            filter,
			ThresholdTokens:   opts.MapReduceTokens,
			MaxTokensPerChunk: opts.MaxTokensPerChunk,
			ChunkOverlap:      opts.ChunkOverlap,
			Concurrency:       opts.Concurrency,
		},
		Usage:   usage,
		Timeout: opts.Timeout,
	}
}

// Analyze runs the three stages and returns the aggregated report.
// Sentiment and clustering run concurrently; summarization starts as soon
// as sentiment completes, since its prompt frames the computed overall
// score.
func (p *Pipeline) Analyze(ctx context.Context, posts []Post) (*AnalysisReport, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	usage := llm.NewUsageTracker(p.Usage.Rate())
	ctx = llm.WithUsage(ctx, usage)

	if len(posts) == 0 {
		return &AnalysisReport{
			OverallSentiment: 50.0,
			SentimentResults: []SentimentResult{},
			Clusters:         []OpinionCluster{},
			Summary:          "No posts to analyze.",
			Status:           StatusComplete,
			Usage:            usage.Summary(),
			GeneratedAt:      time.Now().UTC(),
		}, nil
	}

	log.Printf("analyzing %d posts", len(posts))

	var (
		clusters   []OpinionCluster
		clusterErr error
	)
	clusterDone := make(chan struct{})
	go func() {
		defer close(clusterDone)
		p.emit("clustering", "started")
		clusters, clusterErr = p.Clustering.Cluster(ctx, posts)
		p.emit("clustering", "done")
	}()

	p.emit("sentiment", "started")
	results, err := p.Sentiment.Score(ctx, posts)
	if err != nil {
		<-clusterDone
		p.emit("sentiment", "failed")
		return nil, &PipelineError{Stage: "sentiment", Err: err}
	}
	p.emit("sentiment", "done")

	overall := OverallSentiment(results)
	log.Printf("overall sentiment: %.1f/100", overall)

	p.emit("summary", "started")
	summary, summaryErr := p.Summary.Summarize(ctx, posts, overall)
	p.emit("summary", "done")

	<-clusterDone

	status := StatusComplete
	if clusterErr != nil {
		log.Printf("clustering failed, report degrades to partial: %v", clusterErr)
		clusters = []OpinionCluster{}
		status = StatusPartial
	}
	if summaryErr != nil {
		log.Printf("summary failed, report degrades to partial: %v", summaryErr)
		summary = SummaryUnavailable
		status = StatusPartial
	}
	if clusters == nil {
		clusters = []OpinionCluster{}
	}

	return &AnalysisReport{
		OverallSentiment: overall,
		SentimentResults: results,
		Clusters:         clusters,
		Summary:          summary,
		Status:           status,
		Usage:            usage.Summary(),
		GeneratedAt:      time.Now().UTC(),
	}, nil
}

func (p *Pipeline) emit(stage, event string) {
	if p.Progress != nil {
		p.Progress(stage, event)
	}
}
