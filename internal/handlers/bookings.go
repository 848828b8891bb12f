package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/booking"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/store"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/utils"
)

type BookingHandler struct {
	Bookings *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{Bookings: svc}
}

func (h *BookingHandler) Routes(r fiber.Router, authMiddleware fiber.Handler) {
	g := r.Group("/bookings", authMiddleware)
	g.Post("/", h.CreateBooking)
	g.Get("/", h.ListBookings)
	g.Get("/:id", h.GetBooking)
	g.Put("/:id", h.UpdateStatus)
}

type CreateBookingReq struct {
	WorkerID      string `json:"worker_id"`
	WorkerIDCamel string `json:"workerId"`
	Service       string `json:"service"`
	City          string `json:"city"`
	Date          string `json:"date"`
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	var req CreateBookingReq
	if err := parseBody(c, &req); err != nil {
		return err
	}

	raw := req.WorkerID
	if raw == "" {
		raw = req.WorkerIDCamel
	}
	in := booking.CreateInput{Service: req.Service, City: req.City}
	if raw != "" {
		if in.WorkerID, err = uuid.Parse(raw); err != nil {
			return apperr.NewBadRequest("Invalid worker_id")
		}
	}
	if req.Date != "" {
		if in.Date, err = utils.ParseDate(req.Date); err != nil {
			return apperr.NewBadRequest("Invalid date")
		}
	}

	b, err := h.Bookings.Create(c.UserContext(), caller, in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Booking successful!", b)
}

func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	var f store.BookingFilter
	var err error
	if f.UserID, err = queryUUID(c, "user_id", "userId"); err != nil {
		return err
	}
	if f.WorkerID, err = queryUUID(c, "worker_id", "workerId"); err != nil {
		return err
	}
	f.Status = models.BookingStatus(c.Query("status"))

	bookings, err := h.Bookings.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", bookings)
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.Bookings.Get(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", b)
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateStatusReq
	if err := parseBody(c, &req); err != nil {
		return err
	}

	b, err := h.Bookings.UpdateStatus(c.UserContext(), caller, id, models.BookingStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Booking status updated successfully",
		"booking": b,
		"data":    b,
	})
}
