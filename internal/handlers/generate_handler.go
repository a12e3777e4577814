package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"ivyx/readiness-api/internal/models"
	"ivyx/readiness-api/internal/services"
)

type GenerateHandler struct {
	generator services.GenerationService
}

func NewGenerateHandler(generator services.GenerationService) *GenerateHandler {
	return &GenerateHandler{generator: generator}
}

// HandleGenerate handles POST /api/generate and relays the raw model reply.
func (h *GenerateHandler) HandleGenerate(c *fiber.Ctx) error {
	var req models.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	log.Printf("🤖 Generate request received (prompt length %d)", len(req.Prompt))

	generation, err := h.generator.GenerateText(c.UserContext(), req.Prompt)
	if err != nil {
		return generationError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"reply":      generation.Text,
		"model":      generation.Model,
		"tokensUsed": generation.TokensUsed,
	})
}

func generationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrEmptyPrompt):
		return errorResponse(c, fiber.StatusBadRequest, "Prompt is required")
	case errors.Is(err, services.ErrGeneratorNotConfigured):
		log.Println("❌ Generation service API key not configured")
		return errorResponse(c, fiber.StatusInternalServerError, "Generation service API key not configured")
	case errors.Is(err, services.ErrGenerationFailed):
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to generate AI response")
	}
	return err
}
