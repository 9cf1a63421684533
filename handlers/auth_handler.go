// handlers/auth_handler.go
package handlers

import (
	"inci.cards/configs"
	"inci.cards/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler serves the email-code authentication endpoints.
type AuthHandler struct {
	authService services.IAuthService
}

// NewAuthHandler builds an AuthHandler on the shared auth service.
func NewAuthHandler(auth services.IAuthService) *AuthHandler {
	return &AuthHandler{authService: auth}
}

type registerRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type loginRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Register (POST /api/auth/register/email/send-code) issues a one-time code
// for a new registration.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, services.ErrEmailRequired)
	}

	code, err := h.authService.RequestRegistrationCode(c.UserContext(), req.Email, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(codeIssuedResponse(code))
}

// Login (POST /api/auth/login/email) issues a one-time code for an existing
// user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, services.ErrEmailRequired)
	}

	code, err := h.authService.RequestLoginCode(c.UserContext(), req.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(codeIssuedResponse(code))
}

// Verify (POST /api/auth/register/email/verify) consumes the code and returns
// a bearer token with the user profile.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, services.ErrCodeRequired)
	}

	token, user, err := h.authService.VerifyCode(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user": fiber.Map{
			"userId": user.UserID,
			"email":  user.Email,
			"name":   user.DisplayName,
		},
	})
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

// VerifyToken (POST /api/auth/verify-token) reports whether a bearer token is
// still valid and returns its claims. Clients use it to resume a session.
func (h *AuthHandler) VerifyToken(c *fiber.Ctx) error {
	var req verifyTokenRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return respondError(c, services.ErrInvalidToken)
	}

	claims, err := h.authService.VerifyToken(req.Token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"userId": claims.UserID,
			"email":  claims.Email,
			"name":   claims.Name,
		},
	})
}

// codeIssuedResponse echoes the code outside production, where no mail
// provider exists and testers read it from the response instead of the log.
func codeIssuedResponse(code string) fiber.Map {
	resp := fiber.Map{"success": true, "message": "код отправлен"}
	if !configs.Get().IsProduction() {
		resp["code"] = code
	}
	return resp
}
