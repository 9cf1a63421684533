// handlers/system_handler.go
package handlers

import (
	"time"

	"inci.cards/services"

	"github.com/gofiber/fiber/v2"
)

// SystemHandler serves health and maintenance endpoints.
type SystemHandler struct {
	aiService    services.IAIService
	batchService services.IBatchService
	startedAt    time.Time
}

// NewSystemHandler builds a SystemHandler.
func NewSystemHandler(ai services.IAIService, batch services.IBatchService) *SystemHandler {
	return &SystemHandler{
		aiService:    ai,
		batchService: batch,
		startedAt:    time.Now(),
	}
}

// Health (GET /health) reports liveness and which optional integrations are
// configured.
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"aiEnabled": h.aiService.Enabled(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ProcessBatch (POST /process-batch) sweeps the card table and reprocesses
// rows without AI data.
func (h *SystemHandler) ProcessBatch(c *fiber.Ctx) error {
	report, err := h.batchService.ProcessPending(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "report": report})
}
