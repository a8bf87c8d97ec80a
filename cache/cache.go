// Package cache holds the optional redis-backed cache for the public post
// feed. The platform works without it; an unreachable redis just disables
// caching.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	feedTTL       = 5 * time.Minute
	generationKey = "feed:generation"
)

// FeedCache caches serialized feed responses. Invalidation is by
// generation: every post mutation bumps the generation counter, which is
// part of every entry key, so stale entries simply age out.
type FeedCache struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewFeedCache dials redis; on failure it returns a disabled cache rather
// than an error.
func NewFeedCache(addr string) *FeedCache {
	logger := log.With().Str("component", "feedCache").Logger()
	if addr == "" {
		return &FeedCache{logger: logger}
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis unreachable, feed cache disabled")
		return &FeedCache{logger: logger}
	}

	logger.Info().Str("addr", addr).Msg("Feed cache connected")
	return &FeedCache{client: client, logger: logger}
}

func (c *FeedCache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *FeedCache) key(ctx context.Context, query string) string {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && err != redis.Nil {
		gen = 0
	}
	return fmt.Sprintf("feed:g%d:%s", gen, query)
}

// Get returns the cached payload for a feed query, or nil on miss.
func (c *FeedCache) Get(ctx context.Context, query string) []byte {
	if !c.Enabled() {
		return nil
	}
	data, err := c.client.Get(ctx, c.key(ctx, query)).Bytes()
	if err != nil {
		return nil
	}
	return data
}

// Set stores a feed payload under the current generation.
func (c *FeedCache) Set(ctx context.Context, query string, payload []byte) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Set(ctx, c.key(ctx, query), payload, feedTTL).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache feed payload")
	}
}

// Invalidate bumps the feed generation so all cached entries fall out of
// use immediately.
func (c *FeedCache) Invalidate(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to bump feed generation")
	}
}

func (c *FeedCache) Close() {
	if c.Enabled() {
		if err := c.client.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("Error closing redis client")
		}
	}
}
