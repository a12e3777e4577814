package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"ivyx/readiness-api/internal/models"
	"ivyx/readiness-api/internal/services"
)

type AuthHandler struct {
	accounts *services.AccountService
	sessions *services.SessionService
}

func NewAuthHandler(accounts *services.AccountService, sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions}
}

// HandleSignup handles POST /api/auth/signup
func (h *AuthHandler) HandleSignup(c *fiber.Ctx) error {
	var req models.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	log.Printf("📝 Signup request (grade %s, %s)", req.Grade, req.Country)

	user, err := h.accounts.Create(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			return errorResponse(c, fiber.StatusBadRequest, validationMessage(err))
		case errors.Is(err, services.ErrEmailTaken):
			return errorResponse(c, fiber.StatusBadRequest, "User already exists with this email")
		}
		return err
	}

	return h.respondWithSession(c, fiber.StatusCreated, user)
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	user, err := h.accounts.FindByCredential(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			return errorResponse(c, fiber.StatusBadRequest, "Email and password are required")
		case errors.Is(err, services.ErrInvalidCredentials):
			log.Println("❌ Login failed: invalid credentials")
			return errorResponse(c, fiber.StatusBadRequest, "Invalid email or password")
		}
		return err
	}

	log.Printf("✅ Login successful: %s", user.ID)
	return h.respondWithSession(c, fiber.StatusOK, user)
}

// HandleRefresh handles POST /api/auth/refresh
func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	var req models.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	session, user, err := h.sessions.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return errorResponse(c, fiber.StatusUnauthorized, "Refresh token is invalid or expired")
		}
		return err
	}

	return c.JSON(sessionBody(session, user))
}

// HandleLogout handles POST /api/auth/logout
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	var req models.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if err := h.sessions.Revoke(c.UserContext(), req.RefreshToken); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out",
	})
}

// HandleMe handles GET /api/auth/me
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user := currentUser(c)
	return c.JSON(fiber.Map{
		"success": true,
		"user":    user.Public(),
	})
}

// HandleListUsers handles GET /api/auth/users
func (h *AuthHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.accounts.ListAll(c.UserContext())
	if err != nil {
		return err
	}

	public := make([]models.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}

	return c.JSON(fiber.Map{
		"success": true,
		"users":   public,
		"total":   len(public),
	})
}

// HandleDeleteUser handles DELETE /api/auth/users/:id
func (h *AuthHandler) HandleDeleteUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorResponse(c, fiber.StatusNotFound, "User not found")
	}

	if err := h.accounts.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "User not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}

func (h *AuthHandler) respondWithSession(c *fiber.Ctx, status int, user *models.User) error {
	session, err := h.sessions.Issue(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(sessionBody(session, user))
}

func sessionBody(session *models.Session, user *models.User) fiber.Map {
	return fiber.Map{
		"success":      true,
		"token":        session.AccessToken,
		"refreshToken": session.RefreshToken,
		"expiresAt":    session.ExpiresAt,
		"user":         user.Public(),
	}
}

// validationMessage drops the sentinel prefix so clients see only the reason.
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": ")
	if msg == "" {
		return "Invalid request"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
