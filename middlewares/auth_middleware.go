// middlewares/auth_middleware.go
package middlewares

import (
	"strings"

	"inci.cards/services"

	"github.com/gofiber/fiber/v2"
)

// LocalsClaims is the Locals key holding the verified *services.Claims.
const LocalsClaims = "claims"

// AuthMiddleware validates the Authorization bearer token and stores the
// claim set in Locals for handlers downstream.
func AuthMiddleware(auth services.IAuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "требуется авторизация",
			})
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   services.ErrInvalidToken.Error(),
			})
		}

		c.Locals(LocalsClaims, claims)
		return c.Next()
	}
}

// ClaimsFromCtx returns the claims stored by AuthMiddleware, or nil on
// routes the middleware never ran for.
func ClaimsFromCtx(c *fiber.Ctx) *services.Claims {
	claims, _ := c.Locals(LocalsClaims).(*services.Claims)
	return claims
}
