package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"opinionpulse/internal/analysis"
	"opinionpulse/internal/archive"
	"opinionpulse/internal/collector"
	"opinionpulse/internal/config"
	"opinionpulse/internal/llm"
	"opinionpulse/internal/reportstore"
	"opinionpulse/internal/schedule"
)

func main() {
	topic := flag.String("topic", "", "topic to analyze")
	postsPath := flag.String("posts", "", "path to a JSON file with posts")
	limit := flag.Int("limit", 0, "max posts to analyze (0 = all)")
	out := flag.String("out", "", "write the full report JSON here (default stdout)")
	flag.Parse()
	if *postsPath == "" {
		log.Fatal("--posts is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	client, err := llm.NewClient(ctx, llm.ProviderConfig{
		Provider:  cfg.Provider.Provider,
		APIKey:    cfg.Provider.APIKey,
		BaseURL:   cfg.Provider.BaseURL,
		Model:     cfg.Provider.Model,
		RPS:       float64(cfg.Provider.RPS),
		Burst:     cfg.Provider.Burst,
		CacheSize: cfg.Provider.CacheSize,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	usage := llm.NewUsageTracker(llm.RateFor(cfg.Provider.Provider))
	gw := llm.NewGateway(client, usage, llm.GatewayOptions{RetryMax: cfg.Pipeline.RetryMax})
	pipeline := analysis.NewPipeline(gw, usage, analysis.PipelineOptions{
		BatchSize:         cfg.Pipeline.BatchSize,
		MaxTokensPerChunk: cfg.Pipeline.MaxTokensPerChunk,
		ChunkOverlap:      cfg.Pipeline.ChunkOverlap,
		MapReduceTokens:   cfg.Pipeline.MapReduceTokens,
		TopNClusters:      cfg.Pipeline.TopNClusters,
		Concurrency:       cfg.Pipeline.Concurrency,
		Timeout:           cfg.Pipeline.Timeout,
	})

	store := reportstore.NewFromConfig(cfg.Store.DatabaseURL, cfg.Store.ReportDir+"/reports.json", cfg.Store.CacheSize)
	defer store.Close()

	runner := &schedule.Runner{
		Collector: &collector.File{Path: *postsPath},
		Pipeline:  pipeline,
		Store:     store,
		PostLimit: *limit,
	}
	if cfg.Archive.Enabled {
		arc, err := archive.New(archive.Config{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			log.Printf("archive disabled: %v", err)
		} else {
			runner.Archive = arc
		}
	}

	stored, err := runner.Run(ctx, *topic)
	if err != nil {
		log.Fatal(err)
	}

	printReport(stored)

	b, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	if *out == "" {
		fmt.Println(string(b))
	} else if err := os.WriteFile(*out, b, 0o644); err != nil {
		log.Fatal(err)
	}
}

func printReport(stored reportstore.StoredReport) {
	r := stored.Report
	log.Printf("run %s: %d posts, status %s", stored.RunID, stored.PostCount, r.Status)
	log.Printf("overall sentiment: %.1f/100 (%s)", r.OverallSentiment, analysis.DescribeSentiment(r.OverallSentiment))
	for _, c := range r.Clusters {
		log.Printf("cluster %q: %d mentions", c.Label, c.MentionCount)
	}
	log.Printf("usage: %d calls, %d tokens, est. $%.4f",
		r.Usage.Calls, r.Usage.TotalTokens, r.Usage.EstimatedCost)
}
