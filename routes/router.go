// routes/router.go
package routes

import (
	"inci.cards/pkg/cardstate"
	"inci.cards/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	recoverMiddleware "github.com/gofiber/fiber/v2/middleware/recover"
)

// Deps carries the shared service instances the route groups need. The AI
// service and the card registry are process-wide; building them per handler
// would fork the card state.
type Deps struct {
	Auth     services.IAuthService
	Cards    services.ICardService
	Intake   services.IIntakeService
	Batch    services.IBatchService
	AI       services.IAIService
	Registry *cardstate.Registry
}

// SetupRoutes wires all route groups and the shared middleware.
func SetupRoutes(app *fiber.App, deps Deps) {
	app.Use(recoverMiddleware.New())
	app.Use(logger.New())

	registerAuthRoutes(app, deps)
	registerCardRoutes(app, deps)
	registerPublicRoutes(app, deps)

	app.Static("/", "./public")

	app.Use(notFoundHandler)
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"error":   "ресурс не найден",
	})
}
