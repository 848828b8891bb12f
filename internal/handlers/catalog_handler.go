package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/directory"
)

type CatalogHandler struct {
	Directory *directory.Service
}

func NewCatalogHandler(svc *directory.Service) *CatalogHandler {
	return &CatalogHandler{Directory: svc}
}

func (h *CatalogHandler) Routes(r fiber.Router) {
	r.Get("/services", h.GetServices)
}

// GetServices lists every distinct service currently offered by a worker.
func (h *CatalogHandler) GetServices(c *fiber.Ctx) error {
	services, err := h.Directory.ListServices(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", services)
}
