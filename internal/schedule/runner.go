package schedule

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"opinionpulse/internal/analysis"
	"opinionpulse/internal/archive"
	"opinionpulse/internal/collector"
	"opinionpulse/internal/reportstore"
)

// Runner executes one full analysis run: collect posts, run the pipeline,
// persist the report, archive the raw JSON. It is the shared entrypoint
// behind the CLI, the API and the cron schedule.
type Runner struct {
	Collector collector.Collector
	Pipeline  *analysis.Pipeline
	Store     *reportstore.Store
	Archive   *archive.Archive

	// PostLimit caps how many posts one run analyzes. Zero means no cap.
	PostLimit int
}

// Run analyzes a topic end to end and returns the stored report.
func (r *Runner) Run(ctx context.Context, topic string) (reportstore.StoredReport, error) {
	posts, err := r.Collector.Collect(ctx, topic, r.PostLimit)
	if err != nil {
		return reportstore.StoredReport{}, fmt.Errorf("collect %q: %w", topic, err)
	}
	return r.RunPosts(ctx, NewRunID(), topic, posts)
}

// RunPosts analyzes an already-collected post set under a caller-chosen
// run ID, so watchers can subscribe before the run starts.
func (r *Runner) RunPosts(ctx context.Context, runID, topic string, posts []analysis.Post) (reportstore.StoredReport, error) {
	report, err := r.Pipeline.Analyze(ctx, posts)
	if err != nil {
		return reportstore.StoredReport{}, err
	}

	stored := reportstore.StoredReport{
		RunID:     runID,
		Topic:     topic,
		PostCount: len(posts),
		Report:    *report,
		CreatedAt: time.Now().UTC(),
	}
	if r.Store != nil {
		if err := r.Store.Put(stored); err != nil {
			log.Printf("store report %s: %v", stored.RunID, err)
		}
	}
	if r.Archive != nil {
		if err := r.Archive.PutReport(ctx, stored); err != nil {
			log.Printf("archive report %s: %v", stored.RunID, err)
		}
	}
	return stored, nil
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return "run-" + hex.EncodeToString(b)
}
