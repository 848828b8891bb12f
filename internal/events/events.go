// Package events publishes booking lifecycle events to the message bus.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
)

const (
	TopicBookingCreated       = "booking.created"
	TopicBookingStatusChanged = "booking.status_changed"
)

type BookingEvent struct {
	Type           string               `json:"type"`
	Booking        models.Booking       `json:"booking"`
	PreviousStatus models.BookingStatus `json:"previous_status,omitempty"`
	ActorID        string               `json:"actor_id"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

// Publisher delivers a JSON-encoded value to topic, partitioned by key.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// Nop drops every message. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }

type Message struct {
	Topic string
	Key   string
	Value any
}

// Recorder keeps published messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Publish(_ context.Context, topic, key string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Topic: topic, Key: key, Value: value})
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
