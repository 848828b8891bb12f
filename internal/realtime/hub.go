// Package realtime pushes booking notifications to connected websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Client struct {
	ID     string
	UserID uuid.UUID
	Send   chan []byte
}

func NewClient(userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
}

// Hub tracks the clients connected to this instance.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// RegisterClient adds client to the hub. Once Run has returned the client is
// not added and its Send channel is closed.
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// UnregisterClient is a no-op after Run has returned; Run already closed every client.
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser marshals data and queues it for every connection of userID.
func (h *Hub) SendToUser(userID uuid.UUID, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.log.Error("marshal notification", zap.Error(err))
		return
	}
	h.deliver(userID, payload)
}

func (h *Hub) deliver(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.UserID == userID {
			select {
			case client.Send <- payload:
			default:
				// slow consumer, drop rather than block the publisher
			}
		}
	}
}

func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[uuid.UUID]struct{}, len(h.clients))
	for _, c := range h.clients {
		seen[c.UserID] = struct{}{}
	}
	return len(seen)
}

// Run processes registrations until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.log.Debug("ws client registered", zap.String("client", client.ID), zap.Stringer("user", client.UserID),
				zap.Int("connected_users", h.ConnectedUsers()))

		case client := <-h.unregister:
			h.mu.Lock()
			old, ok := h.clients[client.ID]
			if ok {
				delete(h.clients, client.ID)
				close(old.Send)
			}
			h.mu.Unlock()
			if ok {
				h.log.Debug("ws client unregistered", zap.String("client", client.ID),
					zap.Int("connected_users", h.ConnectedUsers()))
			}
		}
	}
}
