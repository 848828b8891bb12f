package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/booking"
)

type WorkerDashboardHandler struct {
	Bookings *booking.Service
}

func NewWorkerDashboardHandler(svc *booking.Service) *WorkerDashboardHandler {
	return &WorkerDashboardHandler{Bookings: svc}
}

func (h *WorkerDashboardHandler) Routes(r fiber.Router, authMiddleware fiber.Handler) {
	r.Get("/workers/me/stats", authMiddleware, middleware.RequireRoles(models.RoleWorker), h.GetDashboardStats)
}

// GetDashboardStats returns the calling worker's booking counts per status.
func (h *WorkerDashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	stats, err := h.Bookings.Stats(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", stats)
}
