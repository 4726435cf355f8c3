package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	json "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/networkqy/internal/model"
	"github.com/d60-Lab/networkqy/pkg/logger"
)

const feedVersionKey = "feed:version"

// FeedCache caches feed list pages without per-viewer liked flags.
// Every mutation bumps feed:version so stale pages simply stop being addressed
// and expire through their TTL.
type FeedCache struct {
	cache *redis.Client
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewFeedCache returns nil when client is nil; a nil *FeedCache is a valid no-op cache.
func NewFeedCache(client *redis.Client, ttl time.Duration) *FeedCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &FeedCache{cache: client, ttl: ttl}
}

func (c *FeedCache) version(ctx context.Context) (int64, error) {
	v, err := c.cache.Get(ctx, feedVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *FeedCache) pageKey(version int64, topic model.Topic, page, size int) string {
	t := string(topic)
	if t == "" {
		t = "all"
	}
	return fmt.Sprintf("feed:v%d:%s:%d:%d", version, t, page, size)
}

// GetPage returns the cached page for the current feed version. On a miss the
// returned version is the one the caller must hand to SetPage, so a page read
// from the database before a concurrent Invalidate is stored under the old
// version. A negative version means the page must not be cached.
func (c *FeedCache) GetPage(ctx context.Context, topic model.Topic, page, size int) ([]PostView, int64, bool) {
	if c == nil {
		return nil, -1, false
	}
	v, err := c.version(ctx)
	if err != nil {
		logger.Warn("feed cache version read failed", zap.Error(err))
		return nil, -1, false
	}
	data, err := c.cache.Get(ctx, c.pageKey(v, topic, page, size)).Bytes()
	if err != nil {
		c.misses.Add(1)
		return nil, v, false
	}
	var out []PostView
	if err := json.Unmarshal(data, &out); err != nil {
		c.misses.Add(1)
		return nil, v, false
	}
	c.hits.Add(1)
	return out, v, true
}

// SetPage stores views under version, as returned by the GetPage miss that
// preceded the database read.
func (c *FeedCache) SetPage(ctx context.Context, version int64, topic model.Topic, page, size int, views []PostView) {
	if c == nil || version < 0 {
		return
	}
	stripped := make([]PostView, len(views))
	for i, pv := range views {
		pv.Liked = false
		stripped[i] = pv
	}
	payload, err := json.Marshal(stripped)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.pageKey(version, topic, page, size), payload, c.ttl).Err(); err != nil {
		logger.Warn("feed cache write failed", zap.Error(err))
	}
}

// Invalidate 使所有已缓存的分页失效
func (c *FeedCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.cache.Incr(ctx, feedVersionKey).Err(); err != nil {
		logger.Warn("feed cache invalidate failed", zap.Error(err))
	}
}

// FeedCacheCounters summarises hits and misses.
type FeedCacheCounters struct {
	Hits   int64
	Misses int64
}

func (c *FeedCache) Counters() FeedCacheCounters {
	if c == nil {
		return FeedCacheCounters{}
	}
	return FeedCacheCounters{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
