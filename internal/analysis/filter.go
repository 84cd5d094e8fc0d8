package analysis

import "strings"

// Default spam keyword list, matched case-insensitively as substrings.
// Filtering is deterministic and runs before any paid call.
var defaultSpamKeywords = []string{
	"buy now",
	"click here",
	"free trial",
	"subscribe",
	"follow me",
	"check my profile",
	"link in bio",
}

// ContentFilter drops noise posts before clustering and summarization.
// Sentiment never filters: the sentiment of spam is still signal.
type ContentFilter struct {
	MinLength    int
	SpamKeywords []string
}

func NewContentFilter() *ContentFilter {
	return &ContentFilter{
		MinLength:    50,
		SpamKeywords: defaultSpamKeywords,
	}
}

// Apply returns the posts whose cleaned content passes the length and spam
// checks, preserving input order. Running it twice yields the same result.
func (f *ContentFilter) Apply(posts []Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		cleaned := Clean(p.Content, 0)
		if len(cleaned) < f.MinLength {
			continue
		}
		if f.isSpam(cleaned) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (f *ContentFilter) isSpam(content string) bool {
	lower := strings.ToLower(content)
	for _, kw := range f.SpamKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SamplePrefix caps the post set at limit with a stable prefix take, so
// repeated runs over identical input are reproducible.
func SamplePrefix(posts []Post, limit int) []Post {
	if limit <= 0 || len(posts) <= limit {
		return posts
	}
	return posts[:limit]
}
