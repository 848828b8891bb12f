package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/auth"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/utils"
)

type AuthHandler struct {
	Auth *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{Auth: svc}
}

func (h *AuthHandler) Routes(r fiber.Router) {
	g := r.Group("/auth")
	g.Post("/register", h.Register)
	g.Post("/login", h.Login)
}

type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Role     string `json:"role"`

	// worker only; services/cities accept "a, b" or ["a","b"]
	Services   *utils.StringList `json:"services"`
	Cities     *utils.StringList `json:"cities"`
	Experience *utils.FlexInt    `json:"experience"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := parseBody(c, &req); err != nil {
		return err
	}

	in := auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
		City:     req.City,
		Role:     models.Role(req.Role),
	}
	if req.Services != nil {
		in.Services = *req.Services
	}
	if req.Cities != nil {
		in.Cities = *req.Cities
	}
	if req.Experience != nil {
		exp := int(*req.Experience)
		in.Experience = &exp
	}

	if _, err := h.Auth.Register(c.UserContext(), in); err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Registration successful", nil)
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := parseBody(c, &req); err != nil {
		return err
	}

	token, user, err := h.Auth.Login(c.UserContext(), req.Email, req.Password, models.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    user,
	})
}
