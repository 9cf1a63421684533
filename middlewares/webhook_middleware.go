// middlewares/webhook_middleware.go
package middlewares

import (
	"crypto/subtle"

	"inci.cards/configs"

	"github.com/gofiber/fiber/v2"
)

// WebhookSecretMiddleware guards machine-to-machine routes with the shared
// x-webhook-secret header. With no secret configured the route is open, which
// matches how the automation is run in development.
func WebhookSecretMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := configs.Get().WebhookSecret
		if secret == "" {
			return c.Next()
		}
		provided := c.Get("x-webhook-secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "неверный секрет вебхука",
			})
		}
		return c.Next()
	}
}
