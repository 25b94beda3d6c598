package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/social-media/social-backend/pkg/cache"
	"github.com/social-media/social-backend/pkg/logger"
	"github.com/social-media/social-backend/pkg/queue"
)

// 活跃度计数保留时间
const activityTTL = 30 * 24 * time.Hour

// ActivityService keeps per-user counters of social events in redis.
type ActivityService struct {
	cache  *cache.RedisClient
	logger *logger.Logger
}

func NewActivityService(cache *cache.RedisClient, logger *logger.Logger) *ActivityService {
	return &ActivityService{cache: cache, logger: logger}
}

func activityKey(userID uint) string {
	return fmt.Sprintf("user_activity:%d", userID)
}

// Record counts one event for the acting user.
func (s *ActivityService) Record(ctx context.Context, event queue.Event) error {
	if s.cache == nil || event.ActorID == 0 {
		return nil
	}

	key := activityKey(event.ActorID)
	if _, err := s.cache.HIncrBy(ctx, key, string(event.Type), 1); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	if err := s.cache.Expire(ctx, key, activityTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to refresh activity TTL")
	}
	return nil
}

// Stats returns the counters for userID, keyed by event type.
func (s *ActivityService) Stats(ctx context.Context, userID uint) (map[string]int64, error) {
	stats := map[string]int64{}
	if s.cache == nil {
		return stats, nil
	}

	raw, err := s.cache.HGetAll(ctx, activityKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			s.logger.WithField("field", field).Warn("Skipping malformed activity counter")
			continue
		}
		stats[field] = n
	}
	return stats, nil
}
