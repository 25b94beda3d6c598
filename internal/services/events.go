package services

import (
	"context"

	"github.com/social-media/social-backend/pkg/logger"
	"github.com/social-media/social-backend/pkg/queue"
)

// publishEvent sends event best-effort. A broker failure never fails the
// request that caused it.
func publishEvent(ctx context.Context, producer queue.Publisher, log *logger.Logger, event queue.Event) {
	if err := producer.Publish(ctx, event.Key(), event); err != nil {
		log.WithError(err).WithField("event_type", event.Type).Error("Failed to publish event")
	}
}
