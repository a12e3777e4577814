package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"ivyx/readiness-api/internal/metrics"
	"ivyx/readiness-api/internal/services"
)

type Dependencies struct {
	Accounts   *services.AccountService
	Sessions   *services.SessionService
	History    *services.HistoryService
	Readiness  *services.ReadinessService
	Generator  services.GenerationService
	References services.ReferenceLibrary
	Metrics    *metrics.Manager
	DBStatus   DatabaseStatus
}

type AppConfig struct {
	AllowedOrigins  string
	RateLimitMax    int
	RateLimitWindow time.Duration
	MaxFileSize     int64
	Production      bool
	// DisableRequestLog silences the access log, mostly for tests.
	DisableRequestLog bool
}

// NewApp builds the Fiber application with every middleware and route.
func NewApp(deps Dependencies, cfg AppConfig) *fiber.App {
	if deps.References == nil {
		deps.References = services.NewDisabledReferenceLibrary()
	}
	if deps.DBStatus == nil {
		deps.DBStatus = func(context.Context) string { return "memory" }
	}

	bodyLimit := int(cfg.MaxFileSize)
	if bodyLimit < 4*1024*1024 {
		bodyLimit = 4 * 1024 * 1024
	}

	app := fiber.New(fiber.Config{
		AppName:      "Admissions Readiness API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		BodyLimit:    bodyLimit,
		// request strings outlive the handler in the stores
		Immutable:    true,
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.Production}))
	if !cfg.DisableRequestLog {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}
	app.Use(Metrics(deps.Metrics))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	RegisterRoutes(app, deps, cfg)
	return app
}

func RegisterRoutes(app *fiber.App, deps Dependencies, cfg AppConfig) {
	authHandler := NewAuthHandler(deps.Accounts, deps.Sessions)
	generateHandler := NewGenerateHandler(deps.Generator)
	assessmentHandler := NewAssessmentHandler(deps.Readiness)
	historyHandler := NewHistoryHandler(deps.History)
	referenceHandler := NewReferenceHandler(deps.References, cfg.MaxFileSize)
	healthHandler := NewHealthHandler(deps.Accounts, deps.History, deps.Generator, deps.References, deps.DBStatus)

	requireAuth := RequireAuth(deps.Sessions, deps.Accounts)
	limited := RateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)

	app.Get("/", healthHandler.HandleHealth)
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	api := app.Group("/api")
	api.Get("/health", healthHandler.HandleHealth)

	auth := api.Group("/auth")
	auth.Post("/signup", limited, authHandler.HandleSignup)
	auth.Post("/login", limited, authHandler.HandleLogin)
	auth.Post("/refresh", limited, authHandler.HandleRefresh)
	auth.Post("/logout", authHandler.HandleLogout)
	auth.Get("/me", requireAuth, authHandler.HandleMe)
	auth.Get("/users", requireAuth, RequireAdmin(), authHandler.HandleListUsers)
	auth.Delete("/users/:id", requireAuth, RequireAdmin(), authHandler.HandleDeleteUser)

	api.Post("/generate", limited, generateHandler.HandleGenerate)
	api.Post("/assessments", limited, requireAuth, assessmentHandler.HandleCreate)

	history := api.Group("/history", requireAuth)
	history.Post("/save", historyHandler.HandleSave)
	history.Get("/:userId/stats", RequireOwner("userId"), historyHandler.HandleStats)
	history.Get("/:userId", RequireOwner("userId"), historyHandler.HandleList)
	history.Delete("/:userId/:assessmentId", RequireOwner("userId"), historyHandler.HandleDeleteOne)
	history.Delete("/:userId", RequireOwner("userId"), historyHandler.HandleDeleteAll)

	admin := api.Group("/admin", requireAuth, RequireAdmin())
	admin.Post("/references", referenceHandler.HandleUpload)
	admin.Get("/references", referenceHandler.HandleList)
}
