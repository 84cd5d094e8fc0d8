package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"opinionpulse/internal/analysis"
	"opinionpulse/internal/archive"
	"opinionpulse/internal/collector"
	"opinionpulse/internal/config"
	"opinionpulse/internal/llm"
	"opinionpulse/internal/reportstore"
	"opinionpulse/internal/schedule"
	"opinionpulse/internal/server"
)

func main() {
	postsPath := flag.String("posts", "", "JSON posts file backing topic collection")
	flag.Parse()

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
	client = llm.Wrap(client, llm.WithLogging(log.Default()))

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

	var col collector.Collector = &collector.Static{}
	if strings.TrimSpace(*postsPath) != "" {
		col = &collector.File{Path: *postsPath}
	}

	runner := &schedule.Runner{
		Collector: col,
		Pipeline:  pipeline,
		Store:     store,
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

	scheduler := schedule.NewScheduler(runner, cfg.Schedule.Topics)
	if err := scheduler.Start(ctx, cfg.Schedule.Spec); err != nil {
		log.Fatal(err)
	}
	defer scheduler.Stop()

	handler := &server.Handler{
		Runner: runner,
		Store:  store,
		Hub:    server.NewRunHub(),
	}
	srv := server.New(cfg.Port, handler.Routes())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal(err)
		}
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}
