// routes/cards.go
package routes

import (
	"inci.cards/handlers"
	"inci.cards/middlewares"

	"github.com/gofiber/fiber/v2"
)

func registerCardRoutes(app *fiber.App, deps Deps) {
	cardHandler := handlers.NewCardHandler(deps.Cards)
	cardGroup := app.Group("/api/cards")
	cardGroup.Use(middlewares.AuthMiddleware(deps.Auth))

	cardGroup.Post("/create", cardHandler.CreateCard)
	cardGroup.Patch("/:cardId/info", cardHandler.UpdateInfo)
	cardGroup.Post("/:cardId/label", cardHandler.ProcessLabel)
	cardGroup.Post("/:cardId/inci", cardHandler.ProcessInci)
	cardGroup.Post("/:cardId/photos", cardHandler.UploadPhotos)
	cardGroup.Patch("/:cardId/name", cardHandler.UpdateName)
}
