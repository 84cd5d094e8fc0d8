package analysis

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrAllCallsFailed reports that no model call in a stage produced output.
var ErrAllCallsFailed = errors.New("analysis: all model calls failed")

// MapFunc analyzes one chunk; ReduceFunc merges the ordered partial results
// into a single output. Both typically issue gateway calls.
type MapFunc[T any] func(ctx context.Context, chunk Chunk) (T, error)
type ReduceFunc[T any] func(ctx context.Context, partials []T) (T, error)

// RunMapReduce maps over the chunks with a bounded number of calls in
// flight, then reduces the ordered partial results. A chunk whose map call
// fails permanently is skipped by the reduce step; the merged output is
// produced whenever at least one chunk succeeds. If every chunk fails the
// run fails as a whole.
func RunMapReduce[T any](ctx context.Context, chunks []Chunk, concurrency int, mapFn MapFunc[T], reduceFn ReduceFunc[T]) (T, error) {
	var zero T
	if len(chunks) == 0 {
		return zero, ErrAllCallsFailed
	}
	if concurrency <= 0 {
		concurrency = 5
	}

	// Results are written by submission index, not completion order.
	partials := make([]T, len(chunks))
	ok := make([]bool, len(chunks))

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)
	for i, c := range chunks {
		wg.Add(1)
		go func(i int, c Chunk) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			out, err := mapFn(ctx, c)
			if err != nil {
				log.Printf("map call for chunk %d failed: %v", c.Index, err)
				return
			}
			partials[i] = out
			ok[i] = true
		}(i, c)
	}
	wg.Wait()

	kept := make([]T, 0, len(chunks))
	for i := range partials {
		if ok[i] {
			kept = append(kept, partials[i])
		}
	}
	if len(kept) == 0 {
		return zero, ErrAllCallsFailed
	}
	return reduceFn(ctx, kept)
}
