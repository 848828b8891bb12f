package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
)

// RequireRoles must run after Authenticate.
func RequireRoles(allowed ...models.Role) fiber.Handler {
	allowedSet := make(map[models.Role]bool, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = true
	}

	return func(c *fiber.Ctx) error {
		caller, err := CallerFrom(c)
		if err != nil {
			return err
		}
		if !allowedSet[caller.Role] {
			return apperr.NewForbidden("Forbidden: insufficient role")
		}
		return c.Next()
	}
}
