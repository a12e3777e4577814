package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"ivyx/readiness-api/internal/services"
)

// DatabaseStatus reports "connected", "disconnected" or "memory".
type DatabaseStatus func(ctx context.Context) string

type HealthHandler struct {
	accounts   *services.AccountService
	history    *services.HistoryService
	generator  services.GenerationService
	references services.ReferenceLibrary
	dbStatus   DatabaseStatus
}

func NewHealthHandler(
	accounts *services.AccountService,
	history *services.HistoryService,
	generator services.GenerationService,
	references services.ReferenceLibrary,
	dbStatus DatabaseStatus,
) *HealthHandler {
	return &HealthHandler{
		accounts:   accounts,
		history:    history,
		generator:  generator,
		references: references,
		dbStatus:   dbStatus,
	}
}

// HandleHealth handles GET / and GET /api/health
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	ctx := c.UserContext()

	totalUsers, err := h.accounts.Count(ctx)
	if err != nil {
		return err
	}
	totalAssessments, err := h.history.CountAll(ctx)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":             true,
		"status":              "OK",
		"message":             "Admissions readiness API is running",
		"time":                time.Now().UTC(),
		"database":            h.dbStatus(ctx),
		"provider":            h.generator.Name(),
		"generatorConfigured": h.generator.Configured(),
		"referencesEnabled":   h.references.Enabled(),
		"endpoints": fiber.Map{
			"auth": []string{
				"POST /api/auth/signup",
				"POST /api/auth/login",
				"POST /api/auth/refresh",
				"POST /api/auth/logout",
				"GET /api/auth/me",
			},
			"ai": []string{
				"POST /api/generate",
				"POST /api/assessments",
			},
			"history": []string{
				"POST /api/history/save",
				"GET /api/history/:userId",
				"GET /api/history/:userId/stats",
				"DELETE /api/history/:userId/:assessmentId",
				"DELETE /api/history/:userId",
			},
		},
		"stats": fiber.Map{
			"totalUsers":       totalUsers,
			"totalAssessments": totalAssessments,
		},
	})
}
