package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"ivyx/readiness-api/internal/config"
	"ivyx/readiness-api/internal/handlers"
	"ivyx/readiness-api/internal/metrics"
	"ivyx/readiness-api/internal/repositories"
	"ivyx/readiness-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Println("✅ Config loaded successfully")

	ctx := context.Background()

	// Initialize storage
	var (
		db             *gorm.DB
		assessmentRepo repositories.AssessmentRepository
		userRepo       repositories.UserRepository
		docRepo        repositories.DocumentRepository
		dbStatus       handlers.DatabaseStatus
	)
	if cfg.Database.Driver == config.StoreDriverMemory {
		assessmentRepo = repositories.NewMemoryAssessmentRepository()
		userRepo = repositories.NewMemoryUserRepository()
		docRepo = repositories.NewMemoryDocumentRepository()
		dbStatus = func(context.Context) string { return "memory" }
		log.Println("⚠️ Using in-memory store, data is lost on restart")
	} else {
		var err error
		db, err = config.InitDatabase(cfg)
		if err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}
		assessmentRepo = repositories.NewAssessmentRepository(db)
		userRepo = repositories.NewUserRepository(db)
		docRepo = repositories.NewDocumentRepository(db)
		dbStatus = postgresStatus(db)
	}
	log.Println("✅ Repositories initialized successfully")

	metricsManager := metrics.NewManager()

	// Initialize generation service
	gemini, err := services.NewGeminiService(
		cfg.LLM.Gemini.APIKey,
		cfg.LLM.Gemini.Model,
		cfg.LLM.Gemini.EmbedModel,
		cfg.LLM.Timeout,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	var generator services.GenerationService = gemini
	if cfg.LLM.Provider == config.ProviderOpenAI {
		generator = services.NewOpenAIService(
			cfg.LLM.OpenAI.APIKey,
			cfg.LLM.OpenAI.BaseURL,
			cfg.LLM.OpenAI.Model,
			cfg.LLM.Timeout,
		)
	}
	if generator.Configured() {
		log.Printf("✅ Generation provider %s configured", generator.Name())
	} else {
		log.Printf("⚠️ Generation provider %s has no API key, AI endpoints will fail", generator.Name())
	}

	// Initialize reference library
	references := services.NewDisabledReferenceLibrary()
	var qdrantService services.QdrantService
	if cfg.ReferencesEnabled() {
		qdrantService, err = services.NewQdrantService(
			cfg.Qdrant.URL,
			cfg.Qdrant.APIKey,
			cfg.Qdrant.Collection,
			cfg.Qdrant.VectorSize,
		)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
		}
		if err := qdrantService.InitCollection(ctx); err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant collection: %v", err)
		}

		storageService := services.NewStorageService(cfg.Storage.UploadPath)
		if err := storageService.EnsureUploadDir(); err != nil {
			log.Fatalf("❌ Failed to create upload directory: %v", err)
		}

		references = services.NewReferenceLibrary(
			storageService,
			services.NewPDFParserService(),
			services.NewTextChunker(),
			gemini,
			qdrantService,
			docRepo,
		)
		log.Println("✅ Reference library enabled")
	}

	// Initialize sessions
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = rand.Text() + rand.Text()
		log.Println("⚠️ JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	var sessionStore services.SessionStore
	if cfg.Redis.URL != "" {
		sessionStore, err = services.NewRedisSessionStore(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Redis: %v", err)
		}
		log.Println("✅ Redis session store connected")
	} else {
		sessionStore = services.NewMemorySessionStore()
		log.Println("⚠️ REDIS_URL not set, refresh tokens are kept in memory")
	}

	accounts := services.NewAccountService(userRepo, assessmentRepo, cfg.Auth.AdminEmails)
	sessions := services.NewSessionService(secret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, sessionStore, accounts)
	history := services.NewHistoryService(assessmentRepo, metricsManager)
	readiness := services.NewReadinessService(
		services.NewPromptBuilder(),
		services.NewAssessmentGenerator(generator, metricsManager),
		history,
		references,
	)
	log.Println("✅ Services initialized successfully")

	app := handlers.NewApp(handlers.Dependencies{
		Accounts:   accounts,
		Sessions:   sessions,
		History:    history,
		Readiness:  readiness,
		Generator:  generator,
		References: references,
		Metrics:    metricsManager,
		DBStatus:   dbStatus,
	}, handlers.AppConfig{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		RateLimitMax:    cfg.Server.RateLimitMax,
		RateLimitWindow: cfg.Server.RateLimitWindow,
		MaxFileSize:     cfg.Storage.MaxFileSize,
		Production:      cfg.IsProduction(),
	})
	log.Println("✅ Handlers initialized")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s", addr)
	log.Printf("🤖 Provider: %s", generator.Name())

	if err := app.Listen(addr); err != nil {
		log.Printf("❌ Server stopped: %v", err)
	}

	if err := sessionStore.Close(); err != nil {
		log.Printf("⚠️ Failed to close session store: %v", err)
	}
	if qdrantService != nil {
		if err := qdrantService.Close(); err != nil {
			log.Printf("⚠️ Failed to close Qdrant client: %v", err)
		}
	}
	if db != nil {
		if err := config.CloseDatabase(db); err != nil {
			log.Printf("⚠️ Failed to close database: %v", err)
		}
	}
	log.Println("👋 Server exited")
}

func postgresStatus(db *gorm.DB) handlers.DatabaseStatus {
	return func(ctx context.Context) string {
		sqlDB, err := db.DB()
		if err != nil {
			return "disconnected"
		}
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			return "disconnected"
		}
		return "connected"
	}
}
