package events

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, string, string, any) error {
	f.calls++
	return errors.New("broker unreachable")
}

func TestBreakerPublisher_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingPublisher{}
	p := NewBreakerPublisher(inner, zap.NewNop())

	for i := 0; i < 5; i++ {
		assert.EqualError(t, p.Publish(context.Background(), TopicBookingCreated, "k", "v"), "broker unreachable")
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.Publish(context.Background(), TopicBookingCreated, "k", "v")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, inner.calls)
}

func TestBreakerPublisher_PassesThrough(t *testing.T) {
	rec := &Recorder{}
	p := NewBreakerPublisher(rec, zap.NewNop())

	assert.NoError(t, p.Publish(context.Background(), TopicBookingStatusChanged, "b1", map[string]string{"status": "accepted"}))
	msgs := rec.Messages()
	if assert.Len(t, msgs, 1) {
		assert.Equal(t, TopicBookingStatusChanged, msgs[0].Topic)
		assert.Equal(t, "b1", msgs[0].Key)
	}
}

func TestKafkaPublisher_TopicPrefix(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "homeease")
	defer p.Close()
	assert.Equal(t, "homeease.booking.created", p.topic(TopicBookingCreated))

	bare := NewKafkaPublisher([]string{"localhost:9092"}, "")
	defer bare.Close()
	assert.Equal(t, "booking.created", bare.topic(TopicBookingCreated))
}
