package analysis

import (
	"context"
	"fmt"
	"strings"

	"opinionpulse/internal/llm"
)

// ClusteringStage identifies the top-N recurring themes in a discussion.
// Clustering is optional commentary: the pipeline absorbs its errors and
// ships the report without clusters.
type ClusteringStage struct {
	Gateway *llm.Gateway
	Filter  *ContentFilter

	TopN              int
	SampleLimit       int
	ThresholdTokens   int
	MaxTokensPerChunk int
	ChunkOverlap      int
	Concurrency       int
}

type clusterEnvelope struct {
	Clusters []OpinionCluster `json:"clusters"`
}

// Cluster returns at most topN opinion clusters. The deterministic spam and
// length filter runs before any paid call; when the sampled set exceeds the
// token threshold the stage switches to map-reduce over chunks of the
// combined text.
func (c *ClusteringStage) Cluster(ctx context.Context, posts []Post) ([]OpinionCluster, error) {
	topN := c.TopN
	if topN <= 0 {
		topN = 3
	}
	limit := c.SampleLimit
	if limit <= 0 {
		limit = 50
	}

	filtered := c.Filter.Apply(posts)
	if len(filtered) == 0 {
		return []OpinionCluster{}, nil
	}
	sampled := SamplePrefix(filtered, limit)

	var env clusterEnvelope
	prompt := clusteringPrompt(sampled, topN)
	if c.ThresholdTokens > 0 && EstimateTokens(prompt) > c.ThresholdTokens {
		merged, err := c.clusterMapReduce(ctx, sampled, topN)
		if err != nil {
			return nil, fmt.Errorf("clustering stage: %w", err)
		}
		env.Clusters = merged
	} else {
		req := llm.Request{
			System:      clusteringSystemPrompt,
			Prompt:      prompt,
			Temperature: 0.5,
		}
		if err := c.Gateway.Complete(ctx, "clustering", req, &env); err != nil {
			return nil, fmt.Errorf("clustering stage: %w", err)
		}
	}

	return sanitizeClusters(env.Clusters, topN, len(sampled)), nil
}

func (c *ClusteringStage) clusterMapReduce(ctx context.Context, sampled []Post, topN int) ([]OpinionCluster, error) {
	var doc strings.Builder
	for _, p := range sampled {
		doc.WriteString(Clean(p.Content, 300))
		doc.WriteString("\n")
	}
	chunks := SplitChunks(doc.String(), c.MaxTokensPerChunk, c.ChunkOverlap)

	mapFn := func(ctx context.Context, chunk Chunk) ([]OpinionCluster, error) {
		var env clusterEnvelope
		req := llm.Request{
			System:      clusteringSystemPrompt,
			Prompt:      clusteringChunkPrompt(chunk, topN),
			Temperature: 0.5,
		}
		if err := c.Gateway.Complete(ctx, "clustering_map", req, &env); err != nil {
			return nil, err
		}
		return env.Clusters, nil
	}
	reduceFn := func(ctx context.Context, partials [][]OpinionCluster) ([]OpinionCluster, error) {
		if len(partials) == 1 {
			return partials[0], nil
		}
		var env clusterEnvelope
		req := llm.Request{
			System:      clusteringSystemPrompt,
			Prompt:      clusteringMergePrompt(partials, topN),
			Temperature: 0.5,
		}
		if err := c.Gateway.Complete(ctx, "clustering_reduce", req, &env); err != nil {
			return nil, err
		}
		return env.Clusters, nil
	}

	return RunMapReduce(ctx, chunks, c.Concurrency, mapFn, reduceFn)
}

// sanitizeClusters enforces the stage invariants: at most topN clusters,
// mention counts within [0, fed], and at most 3 sample quotes each.
func sanitizeClusters(clusters []OpinionCluster, topN, fed int) []OpinionCluster {
	if len(clusters) > topN {
		clusters = clusters[:topN]
	}
	out := make([]OpinionCluster, 0, len(clusters))
	for _, cl := range clusters {
		if cl.MentionCount < 0 {
			cl.MentionCount = 0
		}
		if cl.MentionCount > fed {
			cl.MentionCount = fed
		}
		if len(cl.SampleQuotes) > 3 {
			cl.SampleQuotes = cl.SampleQuotes[:3]
		}
		out = append(out, cl)
	}
	return out
}
