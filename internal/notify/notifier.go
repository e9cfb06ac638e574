// Package notify carries user-facing notifications out of the booking core.
// Delivery is fire-and-forget over Kafka: the services log and swallow any
// publish error, so a broker outage never fails a booking transition.
package notify

import (
	"context"
	"strconv"
	"time"
)

// Event is the payload of the notify call contract.
type Event struct {
	UserID int64             `json:"user_id"`
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
	SentAt time.Time         `json:"sent_at"`
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Dispatcher publishes notification events keyed by recipient.
type Dispatcher struct {
	producer Producer
	topic    string
}

func NewDispatcher(producer Producer, topic string) *Dispatcher {
	return &Dispatcher{producer: producer, topic: topic}
}

func (d *Dispatcher) Notify(ctx context.Context, userID int64, eventType, title, body string, data map[string]string) error {
	if d == nil || d.producer == nil || d.topic == "" {
		return nil
	}
	event := Event{
		UserID: userID,
		Type:   eventType,
		Title:  title,
		Body:   body,
		Data:   data,
		SentAt: time.Now().UTC(),
	}
	return d.producer.Publish(ctx, d.topic, strconv.FormatInt(userID, 10), event)
}
