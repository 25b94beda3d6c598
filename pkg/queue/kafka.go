package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher delivers one keyed message.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// NopPublisher drops every message. It stands in when kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

type KafkaProducer struct {
	writer *kafka.Writer
}

type KafkaConsumer struct {
	reader *kafka.Reader
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		Async:                  false,
		AllowAutoTopicCreation: true,
	}

	return &KafkaProducer{writer: writer}
}

func NewKafkaConsumer(brokers []string, topic, groupID string) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: 1 * time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	return &KafkaConsumer{reader: reader}
}

func (p *KafkaProducer) Publish(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	return p.writer.WriteMessages(ctx, message)
}

// Subscribe blocks, handing every decoded message to handler until ctx is
// cancelled or the reader fails. Undecodable messages and handler errors are
// reported through onError and skipped.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler func(Message) error, onError func(error)) error {
	for {
		message, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		msg, err := decodeMessage(message)
		if err != nil {
			onError(err)
			continue
		}

		if err := handler(msg); err != nil {
			onError(fmt.Errorf("failed to handle message at offset %d: %w", message.Offset, err))
		}
	}
}

func decodeMessage(message kafka.Message) (Message, error) {
	var event Event
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return Message{}, fmt.Errorf("failed to unmarshal message at offset %d: %w", message.Offset, err)
	}
	return Message{
		Key:   string(message.Key),
		Event: event,
		Topic: message.Topic,
	}, nil
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

type Message struct {
	Key   string
	Event Event
	Topic string
}

type EventType string

const (
	EventUserCreated    EventType = "user_created"
	EventUserUpdated    EventType = "user_updated"
	EventPostCreated    EventType = "post_created"
	EventPostUpdated    EventType = "post_updated"
	EventPostDeleted    EventType = "post_deleted"
	EventFollowCreated  EventType = "follow_created"
	EventFollowDeleted  EventType = "follow_deleted"
	EventLikeCreated    EventType = "like_created"
	EventLikeDeleted    EventType = "like_deleted"
	EventCommentCreated EventType = "comment_created"
	EventCommentUpdated EventType = "comment_updated"
	EventCommentDeleted EventType = "comment_deleted"
)

// Event is the envelope of every message on the social events topic.
// ActorID is the user who performed the action.
type Event struct {
	Type      EventType       `json:"type"`
	ActorID   uint            `json:"actor_id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      map[string]uint `json:"data,omitempty"`
}

func NewEvent(eventType EventType, actorID uint, data map[string]uint) Event {
	return Event{
		Type:      eventType,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Key partitions events by actor so one user's events stay ordered.
func (e Event) Key() string {
	return fmt.Sprintf("%d", e.ActorID)
}
