package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// WithCache memoizes successful completions in an in-process LRU keyed by a
// hash of the full request. Identical calls within one process are served
// from memory and never re-billed. Size <= 0 disables the cache.
func WithCache(size int) Middleware {
	return func(next Client) Client {
		if size <= 0 {
			return next
		}
		cache, err := lru.New[string, *Response](size)
		if err != nil {
			return next
		}
		return &cached{next: next, cache: cache}
	}
}

type cached struct {
	next  Client
	cache *lru.Cache[string, *Response]
}

func (c *cached) Name() string                { return c.next.Name() }
func (c *cached) CountTokens(text string) int { return c.next.CountTokens(text) }
func (c *cached) Close() error                { return c.next.Close() }

func (c *cached) Generate(ctx context.Context, req Request) (*Response, error) {
	key := cacheKey(req)
	if resp, ok := c.cache.Get(key); ok {
		return resp, nil
	}
	resp, err := c.next.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, resp)
	return resp, nil
}

func cacheKey(req Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%.2f\x00%d", req.System, req.Prompt, req.Temperature, req.MaxTokens)
	return hex.EncodeToString(h.Sum(nil))
}
