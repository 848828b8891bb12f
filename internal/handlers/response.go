package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/apperr"
)

func respond(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.NewBadRequest("Invalid " + name)
	}
	return id, nil
}

// queryUUID reads the first non-empty of keys. A nil result means absent.
func queryUUID(c *fiber.Ctx, keys ...string) (*uuid.UUID, error) {
	for _, k := range keys {
		raw := c.Query(k)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.NewBadRequest("Invalid " + k)
		}
		return &id, nil
	}
	return nil, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Wrap(apperr.BadRequest, "Invalid request body", err)
	}
	return nil
}
