package realtime

import (
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Serve pumps hub messages to conn until the peer disconnects. Inbound
// frames are read only to detect the close.
func (h *Hub) Serve(conn *websocket.Conn, client *Client) {
	h.RegisterClient(client)
	defer h.UnregisterClient(client)

	go func() {
		for msg := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug("ws write failed", zap.Error(err))
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.log.Debug("ws read ended", zap.Stringer("user", client.UserID), zap.Error(err))
			return
		}
	}
}
