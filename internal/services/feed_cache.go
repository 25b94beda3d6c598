package services

import (
	"context"
	"fmt"
	"time"

	"github.com/social-media/social-backend/internal/models"
	"github.com/social-media/social-backend/pkg/cache"
	"github.com/social-media/social-backend/pkg/logger"
)

const feedVersionKey = "feed:version"

// unknownFeedVersion is returned when the version cannot be read; Set skips it.
const unknownFeedVersion int64 = -1

func feedCacheKey(version int64) string {
	return fmt.Sprintf("feed:latest:%d", version)
}

// FeedCache holds the rendered public feed between writes. Get reports the
// version it looked at; Set stores under that version, so rows read before
// an Invalidate are never served after it.
type FeedCache interface {
	Get(ctx context.Context) ([]models.PostView, int64, bool)
	Set(ctx context.Context, version int64, posts []models.PostView)
	Invalidate(ctx context.Context)
}

type redisFeedCache struct {
	cache  *cache.RedisClient
	ttl    time.Duration
	logger *logger.Logger
}

// NewFeedCache returns a FeedCache backed by redis, or one that never hits
// when client is nil.
func NewFeedCache(client *cache.RedisClient, ttl time.Duration, logger *logger.Logger) FeedCache {
	if client == nil || ttl <= 0 {
		return noopFeedCache{}
	}
	return &redisFeedCache{cache: client, ttl: ttl, logger: logger}
}

func (c *redisFeedCache) version(ctx context.Context) int64 {
	v, err := c.cache.GetInt64(ctx, feedVersionKey)
	if err != nil {
		if cache.IsMiss(err) {
			return 0
		}
		c.logger.WithError(err).Warn("Failed to read feed version")
		return unknownFeedVersion
	}
	return v
}

func (c *redisFeedCache) Get(ctx context.Context) ([]models.PostView, int64, bool) {
	version := c.version(ctx)
	if version == unknownFeedVersion {
		return nil, version, false
	}

	var posts []models.PostView
	if err := c.cache.GetJSON(ctx, feedCacheKey(version), &posts); err != nil {
		if !cache.IsMiss(err) {
			c.logger.WithError(err).Warn("Failed to read feed cache")
		}
		return nil, version, false
	}
	return posts, version, true
}

func (c *redisFeedCache) Set(ctx context.Context, version int64, posts []models.PostView) {
	if version == unknownFeedVersion {
		return
	}
	if err := c.cache.SetJSON(ctx, feedCacheKey(version), posts, c.ttl); err != nil {
		c.logger.WithError(err).Warn("Failed to write feed cache")
	}
}

// Invalidate bumps the version. Entries of older versions age out by TTL.
func (c *redisFeedCache) Invalidate(ctx context.Context) {
	if _, err := c.cache.Incr(ctx, feedVersionKey); err != nil {
		c.logger.WithError(err).Warn("Failed to invalidate feed cache")
	}
}

type noopFeedCache struct{}

func (noopFeedCache) Get(context.Context) ([]models.PostView, int64, bool) { return nil, 0, false }
func (noopFeedCache) Set(context.Context, int64, []models.PostView)        {}
func (noopFeedCache) Invalidate(context.Context)                           {}
