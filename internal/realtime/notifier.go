package realtime

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "notifications:"

// LocalNotifier delivers straight to this instance's hub.
type LocalNotifier struct {
	Hub *Hub
}

func (n LocalNotifier) Notify(_ context.Context, userID uuid.UUID, msg any) error {
	n.Hub.SendToUser(userID, msg)
	return nil
}

// RedisNotifier publishes on "notifications:<userID>" so every API instance
// can forward the message to its own connections (see Hub.ListenRedis).
type RedisNotifier struct {
	RDB *redis.Client
}

func (n RedisNotifier) Notify(ctx context.Context, userID uuid.UUID, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return n.RDB.Publish(ctx, channelPrefix+userID.String(), payload).Err()
}

// ListenRedis forwards messages published by any instance to local clients.
// It returns when ctx is cancelled.
func (h *Hub) ListenRedis(ctx context.Context, rdb *redis.Client) {
	sub := rdb.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			userID, err := uuid.Parse(strings.TrimPrefix(msg.Channel, channelPrefix))
			if err != nil {
				h.log.Warn("ignoring notification on unexpected channel", zap.String("channel", msg.Channel))
				continue
			}
			h.deliver(userID, []byte(msg.Payload))
		}
	}
}
