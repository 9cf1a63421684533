// handlers/webhook_handler.go
package handlers

import (
	"inci.cards/services"

	"github.com/gofiber/fiber/v2"
)

// WebhookHandler serves the single-shot intake endpoints: the public site
// form and the secret-guarded automation webhook share the same pipeline.
type WebhookHandler struct {
	intakeService services.IIntakeService
}

// NewWebhookHandler builds a WebhookHandler on the shared intake service.
func NewWebhookHandler(intake services.IIntakeService) *WebhookHandler {
	return &WebhookHandler{intakeService: intake}
}

// Receive (POST /webhook) processes a complete card pushed by an external
// automation.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var card services.IntakeCard
	if err := c.BodyParser(&card); err != nil {
		return respondError(c, services.ErrProductDataRequired)
	}

	result, err := h.intakeService.ProcessCard(c.UserContext(), card)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "result": result})
}

// CreateFromForm (POST /api/form/create-card, multipart) processes the public
// site form: product fields plus an optional INCI document and photos carried
// in the request body.
func (h *WebhookHandler) CreateFromForm(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return respondError(c, services.ErrProductDataRequired)
	}

	card := services.IntakeCard{
		ProductName: formValue(form, "productName"),
		Purpose:     formValue(form, "purpose"),
		Application: formValue(form, "application"),
		UserID:      formValue(form, "userId"),
	}

	var inciDoc *services.FilePayload
	if len(form.File["inciDoc"]) > 0 {
		files, err := readFormFiles(form, "inciDoc")
		if err != nil {
			return respondError(c, err)
		}
		inciDoc = &files[0]
	}

	var photos []services.FilePayload
	if len(form.File["photos"]) > 0 {
		photos, err = readFormFiles(form, "photos")
		if err != nil {
			return respondError(c, err)
		}
	}

	result, err := h.intakeService.ProcessUpload(c.UserContext(), card, inciDoc, photos)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "result": result})
}
