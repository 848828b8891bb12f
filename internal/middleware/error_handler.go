package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/apperr"
)

func kindForStatus(code int) apperr.Kind {
	switch code {
	case fiber.StatusUnauthorized:
		return apperr.Unauthenticated
	case fiber.StatusForbidden:
		return apperr.Forbidden
	case fiber.StatusNotFound:
		return apperr.NotFound
	case fiber.StatusConflict:
		return apperr.Conflict
	case fiber.StatusUnprocessableEntity:
		return apperr.InvalidTransition
	}
	if code >= 400 && code < 500 {
		return apperr.BadRequest
	}
	return apperr.Internal
}

// ErrorHandler renders every error as
// {"success":false,"error":kind,"message":...,"timestamp":...}.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		kind := apperr.Internal
		msg := "Server error"

		var ae *apperr.Error
		var fe *fiber.Error
		switch {
		case errors.As(err, &ae):
			code, kind = ae.HTTPStatus(), ae.Kind
			if kind != apperr.Internal {
				msg = ae.Message
			}
		case errors.As(err, &fe):
			code, kind, msg = fe.Code, kindForStatus(fe.Code), fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.Error(err),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"success":   false,
			"error":     kind,
			"message":   msg,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
