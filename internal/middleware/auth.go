package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/auth"
)

// CallerKey is the fiber locals key holding the *auth.Caller.
const CallerKey = "caller"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Caller, error)
}

// TokenExtractor pulls the raw token from a request. An empty string with a
// nil error means no credential was sent.
type TokenExtractor func(c *fiber.Ctx) (string, error)

var errMalformedHeader = apperr.NewUnauthenticated("Malformed authorization header")

func BearerToken(c *fiber.Ctx) (string, error) {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if h == "" {
		return "", nil
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMalformedHeader
	}
	return strings.TrimSpace(token), nil
}

// QueryToken reads ?token= for clients that cannot set headers (websockets).
func QueryToken(c *fiber.Ctx) (string, error) {
	return c.Query("token"), nil
}

// Authenticate resolves the credential into an auth.Caller stored in locals.
// Missing or malformed credentials are 401, rejected tokens are 403.
func Authenticate(svc Authenticator, extract TokenExtractor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := extract(c)
		if err != nil {
			return err
		}

		caller, err := svc.Authenticate(c.UserContext(), token)
		if err != nil {
			var ae *apperr.Error
			if errors.As(err, &ae) && ae.Kind == apperr.InvalidCredential {
				return ae.WithStatus(http.StatusForbidden)
			}
			return err
		}

		c.Locals(CallerKey, caller)
		return c.Next()
	}
}

// CallerFrom returns the caller attached by Authenticate.
func CallerFrom(c *fiber.Ctx) (*auth.Caller, error) {
	caller, ok := c.Locals(CallerKey).(*auth.Caller)
	if !ok || caller == nil {
		return nil, apperr.NewUnauthenticated("Access denied. No token provided.")
	}
	return caller, nil
}
