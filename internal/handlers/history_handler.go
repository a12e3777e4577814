package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"ivyx/readiness-api/internal/models"
	"ivyx/readiness-api/internal/services"
)

type HistoryHandler struct {
	history *services.HistoryService
}

func NewHistoryHandler(history *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// HandleSave handles POST /api/history/save
func (h *HistoryHandler) HandleSave(c *fiber.Ctx) error {
	var req models.SaveAssessmentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if req.UserID == "" || req.FormData == nil || len(req.Results) == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "Missing required fields: userId, formData, results")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid userId")
	}
	if !canActFor(currentUser(c), req.UserID) {
		return errorResponse(c, fiber.StatusForbidden, "You can only save to your own history")
	}

	result, err := services.ParseSubmittedResult(req.Results)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Results do not match the assessment schema")
	}

	saved, err := h.history.Save(c.UserContext(), userID, req.FormData, result, req.IsAIGenerated)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return errorResponse(c, fiber.StatusBadRequest, validationMessage(err))
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":          true,
		"message":          "Assessment saved successfully",
		"assessment":       models.NewHistoryEntry(saved.Assessment),
		"totalAssessments": saved.TotalAssessments,
	})
}

// HandleList handles GET /api/history/:userId?limit=N
func (h *HistoryHandler) HandleList(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Valid userId is required")
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return errorResponse(c, fiber.StatusBadRequest, "limit must be a positive integer")
		}
	}

	records, err := h.history.List(c.UserContext(), userID, limit)
	if err != nil {
		return err
	}

	entries := make([]models.HistoryEntry, 0, len(records))
	for i := range records {
		entries = append(entries, models.NewHistoryEntry(&records[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"history": entries,
		"total":   len(entries),
	})
}

// HandleStats handles GET /api/history/:userId/stats
func (h *HistoryHandler) HandleStats(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Valid userId is required")
	}

	stats, err := h.history.Stats(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

// HandleDeleteOne handles DELETE /api/history/:userId/:assessmentId
func (h *HistoryHandler) HandleDeleteOne(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return errorResponse(c, fiber.StatusNotFound, "Assessment not found")
	}

	remaining, err := h.history.DeleteOne(c.UserContext(), userID, c.Params("assessmentId"))
	if err != nil {
		if errors.Is(err, services.ErrAssessmentNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "Assessment not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Assessment deleted successfully",
		"remaining": remaining,
	})
}

// HandleDeleteAll handles DELETE /api/history/:userId
func (h *HistoryHandler) HandleDeleteAll(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Valid userId is required")
	}

	deleted, err := h.history.DeleteAll(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "All history cleared",
		"deletedCount": deleted,
	})
}
