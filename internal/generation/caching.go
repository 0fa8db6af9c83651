package generation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// PromptCache stores generated text by prompt key.
type PromptCache interface {
	// Name identifies the cache tier in logs and metrics.
	Name() string
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// CacheObserver is notified of every cache lookup.
type CacheObserver interface {
	ObserveCache(tier string, hit bool)
}

// CachingGenerator decorates a ContentGenerator with tiered prompt caching.
// Tiers are consulted in order; a hit in a later tier is copied into the
// earlier ones. Concurrent requests for the same prompt share one call.
// Cache failures are logged and otherwise ignored.
type CachingGenerator struct {
	next     ContentGenerator
	tiers    []PromptCache
	group    singleflight.Group
	logger   *slog.Logger
	observer CacheObserver
}

// NewCachingGenerator wraps next. observer may be nil.
func NewCachingGenerator(
	next ContentGenerator,
	logger *slog.Logger,
	observer CacheObserver,
	tiers ...PromptCache,
) (*CachingGenerator, error) {
	if next == nil {
		return nil, fmt.Errorf("%w: generator cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}
	return &CachingGenerator{
		next:     next,
		tiers:    tiers,
		logger:   logger.With("component", "prompt_cache"),
		observer: observer,
	}, nil
}

// CacheKey derives the cache key for a prompt and its options.
func CacheKey(prompt string, opts Options) string {
	h := sha256.New()
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(int64(opts.MaxOutputTokens), 10)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(float64(opts.Temperature), 'f', -1, 32)))
	return "prompt:" + hex.EncodeToString(h.Sum(nil))
}

// Generate implements ContentGenerator.
func (c *CachingGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	key := CacheKey(prompt, opts)

	if text, ok := c.lookup(ctx, key); ok {
		return text, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		text, err := c.next.Generate(ctx, prompt, opts)
		if err != nil {
			return "", err
		}
		if text != "" {
			c.store(ctx, key, text, len(c.tiers))
		}
		return text, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.DebugContext(ctx, "shared in-flight generation", "key", key)
	}
	return v.(string), nil
}

func (c *CachingGenerator) lookup(ctx context.Context, key string) (string, bool) {
	for i, tier := range c.tiers {
		text, ok, err := tier.Get(ctx, key)
		if err != nil {
			c.logger.WarnContext(ctx, "prompt cache read failed", "tier", tier.Name(), "error", err)
			continue
		}
		if c.observer != nil {
			c.observer.ObserveCache(tier.Name(), ok)
		}
		if ok {
			c.store(ctx, key, text, i)
			return text, true
		}
	}
	return "", false
}

// store writes text into the first n tiers.
func (c *CachingGenerator) store(ctx context.Context, key, text string, n int) {
	for _, tier := range c.tiers[:n] {
		if err := tier.Set(ctx, key, text); err != nil {
			c.logger.WarnContext(ctx, "prompt cache write failed", "tier", tier.Name(), "error", err)
		}
	}
}
