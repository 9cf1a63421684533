// handlers/respond.go
package handlers

import (
	"errors"

	"inci.cards/configs/configslog"
	"inci.cards/pkg/cardstate"
	"inci.cards/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps a service error onto the wire contract: a status code and
// a {"success": false, "error": "..."} body. Unrecognised errors become 500
// with a generic message so internals never leak.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		configslog.Log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		message = "внутренняя ошибка сервера"
		if errors.Is(err, services.ErrAIUnavailable) {
			message = services.ErrAIUnavailable.Error()
		}
	}
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrCardFieldsRequired),
		errors.Is(err, services.ErrInfoFieldsRequired),
		errors.Is(err, services.ErrNameRequiredField),
		errors.Is(err, services.ErrNoFilesUploaded),
		errors.Is(err, services.ErrTooManyFiles),
		errors.Is(err, services.ErrSingleFileRequired),
		errors.Is(err, services.ErrFileTooLarge),
		errors.Is(err, services.ErrUnsupportedFile),
		errors.Is(err, services.ErrProductDataRequired),
		errors.Is(err, services.ErrEmailRequired),
		errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrCodeRequired):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCode),
		errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrCardNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, cardstate.ErrStaleStage):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
