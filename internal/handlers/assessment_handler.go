package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ivyx/readiness-api/internal/models"
	"ivyx/readiness-api/internal/services"
)

type AssessmentHandler struct {
	readiness *services.ReadinessService
}

func NewAssessmentHandler(readiness *services.ReadinessService) *AssessmentHandler {
	return &AssessmentHandler{readiness: readiness}
}

// HandleCreate handles POST /api/assessments
func (h *AssessmentHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.CreateAssessmentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	outcome, err := h.readiness.Assess(c.UserContext(), currentUser(c), req.Profile, req.Save)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return errorResponse(c, fiber.StatusBadRequest, validationMessage(err))
		}
		return generationError(c, err)
	}

	body := fiber.Map{
		"success":        true,
		"result":         outcome.Generated.Result,
		"isAIGenerated":  outcome.Generated.IsAIGenerated,
		"model":          outcome.Generated.Model,
		"tokensUsed":     outcome.Generated.TokensUsed,
		"referencesUsed": outcome.ReferencesUsed,
	}
	if outcome.Saved != nil {
		body["assessment"] = models.NewHistoryEntry(outcome.Saved)
		body["totalAssessments"] = outcome.TotalAssessments
	}

	return c.JSON(body)
}
