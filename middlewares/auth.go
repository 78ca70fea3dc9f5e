package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/OKB20/spos-api/tokens"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// RequireAuth validates the Bearer access token and populates
// c.Locals("userID", "role", "claims"). All token failures surface as a
// uniform 401 through the error handler; we never tell the caller whether
// the signature or the expiry check failed.
func RequireAuth(authority *tokens.Authority) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
			return fiber.NewError(fiber.StatusUnauthorized, "missing or invalid Authorization header")
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid bearer token")
		}

		claims, err := authority.Validate(raw)
		if err != nil {
			return err // mapped to 401 centrally
		}

		c.Locals("userID", claims.Subject)
		c.Locals("role", claims.Role)
		c.Locals("claims", claims)

		return c.Next()
	}
}
