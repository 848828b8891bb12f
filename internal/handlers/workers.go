package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/directory"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/utils"
)

type WorkerHandler struct {
	Directory *directory.Service
}

func NewWorkerHandler(svc *directory.Service) *WorkerHandler {
	return &WorkerHandler{Directory: svc}
}

func (h *WorkerHandler) Routes(r fiber.Router, authMiddleware fiber.Handler) {
	g := r.Group("/workers")
	g.Get("/", h.FindWorkers)
	g.Get("/user/:userId", authMiddleware, h.GetByUser)
	g.Get("/:workerId", h.GetWorker)
	g.Put("/:workerId", authMiddleware, middleware.RequireRoles(models.RoleWorker), h.UpdateWorker)
	g.Post("/:workerId/reviews", authMiddleware, middleware.RequireRoles(models.RoleCustomer), h.AddReview)
}

func (h *WorkerHandler) FindWorkers(c *fiber.Ctx) error {
	workers, err := h.Directory.FindWorkers(c.UserContext(), c.Query("service"), c.Query("city"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", workers)
}

func (h *WorkerHandler) GetWorker(c *fiber.Ctx) error {
	id, err := paramUUID(c, "workerId")
	if err != nil {
		return err
	}
	w, err := h.Directory.GetWorker(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", w)
}

func (h *WorkerHandler) GetByUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "userId")
	if err != nil {
		return err
	}
	w, err := h.Directory.GetWorkerByIdentity(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", w)
}

// UpdateWorkerReq lists the only fields a worker may change. Anything else
// in the body is ignored.
type UpdateWorkerReq struct {
	Services     *utils.StringList `json:"services"`
	Cities       *utils.StringList `json:"cities"`
	Experience   *utils.FlexInt    `json:"experience"`
	Availability *bool             `json:"availability"`
}

func (h *WorkerHandler) UpdateWorker(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "workerId")
	if err != nil {
		return err
	}
	var req UpdateWorkerReq
	if err := parseBody(c, &req); err != nil {
		return err
	}

	upd := directory.WorkerUpdate{Availability: req.Availability}
	if req.Services != nil {
		upd.Services = *req.Services
	}
	if req.Cities != nil {
		upd.Cities = *req.Cities
	}
	if req.Experience != nil {
		exp := int(*req.Experience)
		upd.Experience = &exp
	}

	w, err := h.Directory.UpdateWorkerProfile(c.UserContext(), caller, id, upd)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Profile updated", w)
}

type AddReviewReq struct {
	Rating  utils.FlexInt `json:"rating"`
	Comment string        `json:"comment"`
}

func (h *WorkerHandler) AddReview(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "workerId")
	if err != nil {
		return err
	}
	var req AddReviewReq
	if err := parseBody(c, &req); err != nil {
		return err
	}

	review, err := h.Directory.AddReview(c.UserContext(), caller, id, int(req.Rating), req.Comment)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Review added", review)
}
