package analysis

import (
	"context"
	"log"
	"sync"

	"opinionpulse/internal/llm"
)

// BatchSpec describes how a stage formats and parses batched model calls.
// FormatBatch builds one prompt for a slice of pre-formatted items;
// FormatItem builds the per-item fallback prompt. Default is substituted
// for items that fail even the fallback call.
type BatchSpec[T any] struct {
	Operation   string
	BatchSize   int
	Concurrency int
	FormatBatch func(items []string) llm.Request
	FormatItem  func(item string) llm.Request
	Default     T
}

// BatchReport summarizes what the runner had to do to fill the output.
type BatchReport struct {
	BatchCalls int
	ItemCalls  int
	Defaulted  int
}

// RunBatches partitions items into consecutive batches, issues one gateway
// call per batch, and parses the structured array response. A failed batch
// (gateway error or result-count mismatch) is retried once as individual
// per-item calls; items that still fail get the configured default. The returned
// slice always has the same length and order as items. The error is non-nil
// only when every single call failed, which callers treat as stage failure.
func RunBatches[T any](ctx context.Context, gw *llm.Gateway, items []string, spec BatchSpec[T]) ([]T, BatchReport, error) {
	results := make([]T, len(items))
	for i := range results {
		results[i] = spec.Default
	}
	if len(items) == 0 {
		return results, BatchReport{}, nil
	}

	batchSize := spec.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	concurrency := spec.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	type batch struct {
		offset int
		items  []string
	}
	var batches []batch
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, batch{offset: i, items: items[i:end]})
	}

	var (
		mu     sync.Mutex
		report BatchReport
		anyOK  bool
		wg     sync.WaitGroup
		sem    = make(chan struct{}, concurrency)
	)

	runItem := func(ctx context.Context, idx int, item string) {
		var single T
		err := gw.Complete(ctx, spec.Operation+"_item", spec.FormatItem(item), &single)
		mu.Lock()
		defer mu.Unlock()
		report.ItemCalls++
		if err != nil {
			report.Defaulted++
			return
		}
		anyOK = true
		results[idx] = single
	}

	for _, b := range batches {
		wg.Add(1)
		go func(b batch) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				report.Defaulted += len(b.items)
				mu.Unlock()
				return
			}

			var parsed []T
			err := gw.Complete(ctx, spec.Operation, spec.FormatBatch(b.items), &parsed)
			mu.Lock()
			report.BatchCalls++
			mu.Unlock()

			if err == nil && len(parsed) == len(b.items) {
				mu.Lock()
				anyOK = true
				copy(results[b.offset:b.offset+len(b.items)], parsed)
				mu.Unlock()
				return
			}
			if err != nil {
				log.Printf("batch %s failed (%v), falling back to %d item calls",
					spec.Operation, err, len(b.items))
			} else {
				log.Printf("batch %s returned %d results for %d items, falling back",
					spec.Operation, len(parsed), len(b.items))
			}

			// One retry pass, per item.
			for j, item := range b.items {
				if ctx.Err() != nil {
					mu.Lock()
					report.Defaulted += len(b.items) - j
					mu.Unlock()
					return
				}
				runItem(ctx, b.offset+j, item)
			}
		}(b)
	}
	wg.Wait()

	if !anyOK {
		return results, report, ErrAllCallsFailed
	}
	return results, report, nil
}
