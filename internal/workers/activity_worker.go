package workers

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/social-media/social-backend/internal/services"
	"github.com/social-media/social-backend/pkg/logger"
	"github.com/social-media/social-backend/pkg/queue"
)

// Subscriber is the consuming side of the event bus.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(queue.Message) error, onError func(error)) error
	Close() error
}

// DefaultHandleTimeout bounds the processing of one delivered message.
const DefaultHandleTimeout = 5 * time.Second

// ActivityWorker turns social events into per-user activity counters.
type ActivityWorker struct {
	consumer Subscriber
	activity *services.ActivityService
	logger   *logger.Logger
	timeout  time.Duration

	stopOnce sync.Once
}

func NewActivityWorker(consumer Subscriber, activity *services.ActivityService, logger *logger.Logger) *ActivityWorker {
	return &ActivityWorker{
		consumer: consumer,
		activity: activity,
		logger:   logger,
		timeout:  DefaultHandleTimeout,
	}
}

// Start blocks until ctx is cancelled or the consumer fails. Cancelling ctx
// stops the read loop only; a message already delivered is still recorded.
func (w *ActivityWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting activity worker...")

	return w.consumer.Subscribe(ctx, func(msg queue.Message) error {
		handleCtx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()
		return w.HandleEvent(handleCtx, msg.Event)
	}, func(err error) {
		w.logger.WithError(err).Error("Failed to process event")
	})
}

func (w *ActivityWorker) HandleEvent(ctx context.Context, event queue.Event) error {
	w.logger.WithFields(logrus.Fields{
		"event_type": event.Type,
		"actor_id":   event.ActorID,
		"timestamp":  event.Timestamp,
	}).Debug("Processing event")

	switch event.Type {
	case queue.EventUserCreated, queue.EventUserUpdated,
		queue.EventPostCreated, queue.EventPostUpdated, queue.EventPostDeleted,
		queue.EventFollowCreated, queue.EventFollowDeleted,
		queue.EventLikeCreated, queue.EventLikeDeleted,
		queue.EventCommentCreated, queue.EventCommentUpdated, queue.EventCommentDeleted:
		return w.activity.Record(ctx, event)
	default:
		w.logger.WithField("event_type", event.Type).Warn("Unknown event type")
		return nil
	}
}

func (w *ActivityWorker) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping activity worker...")
		err = w.consumer.Close()
	})
	return err
}
