// routes/auth.go
package routes

import (
	"inci.cards/handlers"

	"github.com/gofiber/fiber/v2"
)

func registerAuthRoutes(app *fiber.App, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Auth)
	authGroup := app.Group("/api/auth")

	authGroup.Post("/register/email/send-code", authHandler.Register)
	authGroup.Post("/register/email/verify", authHandler.Verify)
	authGroup.Post("/login/email", authHandler.Login)
	authGroup.Post("/verify-token", authHandler.VerifyToken)
}
