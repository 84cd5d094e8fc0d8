package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"opinionpulse/internal/analysis"
)

// File reads posts from a JSON file holding an array of post objects.
// Topic filtering is by substring match on content when a topic is given,
// so one exported dataset can back several runs.
type File struct {
	Path string
}

func (f *File) Collect(_ context.Context, topic string, limit int) ([]analysis.Post, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read posts file: %w", err)
	}
	var posts []analysis.Post
	if err := json.Unmarshal(b, &posts); err != nil {
		return nil, fmt.Errorf("parse posts file: %w", err)
	}

	topic = strings.TrimSpace(topic)
	out := make([]analysis.Post, 0, len(posts))
	for _, p := range posts {
		if topic != "" && !strings.Contains(strings.ToLower(p.Content), strings.ToLower(topic)) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
