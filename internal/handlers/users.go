package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/account"
)

type UserHandler struct {
	Accounts *account.Service
}

func NewUserHandler(svc *account.Service) *UserHandler {
	return &UserHandler{Accounts: svc}
}

func (h *UserHandler) Routes(r fiber.Router, authMiddleware fiber.Handler) {
	g := r.Group("/users", authMiddleware)
	g.Get("/:id", h.GetUser)
	g.Put("/:id", h.UpdateUser)
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.Accounts.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", u)
}

type UpdateUserReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateUserReq
	if err := parseBody(c, &req); err != nil {
		return err
	}

	u, err := h.Accounts.UpdateUser(c.UserContext(), caller, id, account.UserUpdate{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Profile updated", u)
}
