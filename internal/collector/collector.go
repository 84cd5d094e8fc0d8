package collector

import (
	"context"

	"opinionpulse/internal/analysis"
)

// Collector fetches the posts for a topic. Implementations wrap platform
// APIs, files, or fixtures; the pipeline treats them all the same.
type Collector interface {
	Collect(ctx context.Context, topic string, limit int) ([]analysis.Post, error)
}

// Static serves a fixed post set regardless of topic. Used in tests and as
// the request-body collector for the API, where the caller already has the
// posts in hand.
type Static struct {
	Posts []analysis.Post
}

func (s *Static) Collect(_ context.Context, _ string, limit int) ([]analysis.Post, error) {
	posts := s.Posts
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	out := make([]analysis.Post, len(posts))
	copy(out, posts)
	return out, nil
}
