package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/auth"
)

type RealtimeHandler struct {
	Hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{Hub: hub}
}

// Routes mounts GET /ws/bookings?token=<jwt>. The token is checked before
// the upgrade so unauthenticated clients get a normal HTTP error.
func (h *RealtimeHandler) Routes(app fiber.Router, authn middleware.Authenticator) {
	app.Get("/ws/bookings",
		requireUpgrade,
		middleware.Authenticate(authn, middleware.QueryToken),
		websocket.New(h.BookingUpdates),
	)
}

func requireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

func (h *RealtimeHandler) BookingUpdates(conn *websocket.Conn) {
	caller, ok := conn.Locals(middleware.CallerKey).(*auth.Caller)
	if !ok || caller == nil {
		_ = conn.Close()
		return
	}
	h.Hub.Serve(conn, realtime.NewClient(caller.UserID))
}
