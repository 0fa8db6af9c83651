package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU is a fixed-size, least-recently-used in-process cache.
type LRU struct {
	entries *lru.Cache[string, string]
}

// NewLRU creates an LRU holding at most size entries.
func NewLRU(size int) (*LRU, error) {
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &LRU{entries: entries}, nil
}

// Name implements generation.PromptCache.
func (c *LRU) Name() string { return "lru" }

// Get implements generation.PromptCache.
func (c *LRU) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.entries.Get(key)
	return v, ok, nil
}

// Set implements generation.PromptCache.
func (c *LRU) Set(_ context.Context, key, value string) error {
	c.entries.Add(key, value)
	return nil
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	return c.entries.Len()
}
