package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"ivyx/readiness-api/internal/metrics"
	"ivyx/readiness-api/internal/models"
	"ivyx/readiness-api/internal/services"
)

const userLocalKey = "user"

func RateLimiter(max int, expiration time.Duration) fiber.Handler {
	if max <= 0 {
		max = 60
	}
	if expiration <= 0 {
		expiration = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: expiration,
		LimitReached: func(c *fiber.Ctx) error {
			return errorResponse(c, fiber.StatusTooManyRequests, "Too many requests, please try again later")
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// Metrics records one sample per request, labelled with the matched route pattern.
func Metrics(m *metrics.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if err != nil && errors.As(err, &fe) {
			status = fe.Code
		}

		route := c.Route().Path
		if route == "" || route == "/" && c.Path() != "/" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Method(), route, status, time.Since(start))
		return err
	}
}

// RequireAuth resolves the bearer token to a current user record.
func RequireAuth(sessions *services.SessionService, accounts *services.AccountService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return errorResponse(c, fiber.StatusUnauthorized, "Not authorized, no token")
		}

		claims, err := sessions.ParseAccessToken(strings.TrimSpace(token))
		if err != nil {
			return errorResponse(c, fiber.StatusUnauthorized, "Not authorized, token invalid")
		}

		userID, _ := claims.UserID()
		user, err := accounts.FindByID(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return errorResponse(c, fiber.StatusUnauthorized, "Not authorized, user not found")
			}
			return err
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		if user == nil || !user.IsAdmin() {
			return errorResponse(c, fiber.StatusForbidden, "Access denied: admin role required")
		}
		return c.Next()
	}
}

// RequireOwner lets a request through when the path parameter names the
// signed-in user. Admins may act on any user.
func RequireOwner(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		if user == nil {
			return errorResponse(c, fiber.StatusUnauthorized, "Not authorized")
		}
		if !canActFor(user, c.Params(param)) {
			return errorResponse(c, fiber.StatusForbidden, "You can only access your own history")
		}
		return c.Next()
	}
}

func canActFor(user *models.User, userID string) bool {
	return user.IsAdmin() || strings.EqualFold(user.ID.String(), strings.TrimSpace(userID))
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalKey).(*models.User)
	return user
}
