package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_SendToUserReachesOnlyThatUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	alice, bob := uuid.New(), uuid.New()
	a1, a2, b := NewClient(alice), NewClient(alice), NewClient(bob)
	hub.RegisterClient(a1)
	hub.RegisterClient(a2)
	hub.RegisterClient(b)
	require.Eventually(t, func() bool { return hub.ConnectedUsers() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, LocalNotifier{Hub: hub}.Notify(ctx, alice, map[string]string{"type": "booking_created"}))

	for _, c := range []*Client{a1, a2} {
		select {
		case raw := <-c.Send:
			var got map[string]string
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, "booking_created", got["type"])
		case <-time.After(time.Second):
			t.Fatal("expected a message")
		}
	}
	assert.Empty(t, b.Send)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	c := NewClient(uuid.New())
	hub.RegisterClient(c)
	hub.UnregisterClient(c)

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	registered := NewClient(uuid.New())
	hub.RegisterClient(registered)
	cancel()
	<-stopped

	done := make(chan struct{})
	late := NewClient(uuid.New())
	go func() {
		hub.UnregisterClient(registered)
		hub.RegisterClient(late)
		hub.UnregisterClient(late)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after Run returned")
	}

	for _, c := range []*Client{registered, late} {
		_, ok := <-c.Send
		assert.False(t, ok)
	}
	assert.Zero(t, hub.ConnectedUsers())
}
