// routes/public.go
package routes

import (
	"inci.cards/handlers"
	"inci.cards/middlewares"

	"github.com/gofiber/fiber/v2"
)

func registerPublicRoutes(app *fiber.App, deps Deps) {
	webhookHandler := handlers.NewWebhookHandler(deps.Intake)
	systemHandler := handlers.NewSystemHandler(deps.AI, deps.Batch)

	app.Post("/api/form/create-card", webhookHandler.CreateFromForm)
	app.Post("/webhook", middlewares.WebhookSecretMiddleware(), webhookHandler.Receive)
	app.Post("/process-batch", middlewares.WebhookSecretMiddleware(), systemHandler.ProcessBatch)
	app.Get("/health", systemHandler.Health)
}
