package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRunMapReduceKeepsSubmissionOrder(t *testing.T) {
	chunks := []Chunk{
		{Index: 0, Text: "alpha"},
		{Index: 1, Text: "beta"},
		{Index: 2, Text: "gamma"},
	}
	mapFn := func(_ context.Context, c Chunk) (string, error) {
		return strings.ToUpper(c.Text), nil
	}
	reduceFn := func(_ context.Context, partials []string) (string, error) {
		return strings.Join(partials, "|"), nil
	}

	out, err := RunMapReduce(context.Background(), chunks, 2, mapFn, reduceFn)
	if err != nil {
		t.Fatalf("RunMapReduce: %v", err)
	}
	if out != "ALPHA|BETA|GAMMA" {
		t.Fatalf("partials out of order: %q", out)
	}
}

func TestRunMapReduceSkipsFailedChunks(t *testing.T) {
	chunks := []Chunk{
		{Index: 0, Text: "keep-0"},
		{Index: 1, Text: "fail"},
		{Index: 2, Text: "keep-2"},
	}
	mapFn := func(_ context.Context, c Chunk) (string, error) {
		if c.Text == "fail" {
			return "", errors.New("boom")
		}
		return c.Text, nil
	}
	reduceFn := func(_ context.Context, partials []string) (string, error) {
		return strings.Join(partials, "|"), nil
	}

	out, err := RunMapReduce(context.Background(), chunks, 2, mapFn, reduceFn)
	if err != nil {
		t.Fatalf("RunMapReduce: %v", err)
	}
	if out != "keep-0|keep-2" {
		t.Fatalf("expected failed chunk skipped, got %q", out)
	}
}

func TestRunMapReduceAllChunksFailed(t *testing.T) {
	chunks := []Chunk{{Index: 0, Text: "a"}, {Index: 1, Text: "b"}}
	mapFn := func(_ context.Context, c Chunk) (string, error) {
		return "", fmt.Errorf("chunk %d down", c.Index)
	}
	reduceFn := func(_ context.Context, partials []string) (string, error) {
		t.Fatal("reduce must not run when every map call failed")
		return "", nil
	}

	_, err := RunMapReduce(context.Background(), chunks, 2, mapFn, reduceFn)
	if !errors.Is(err, ErrAllCallsFailed) {
		t.Fatalf("expected ErrAllCallsFailed, got %v", err)
	}
}
