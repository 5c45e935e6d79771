package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/callpulse-hq/callpulse/pkg/validator"

	"github.com/callpulse-hq/callpulse/internal/adapter/handler"
	"github.com/callpulse-hq/callpulse/internal/adapter/repository"
	"github.com/callpulse-hq/callpulse/internal/infrastructure/cache"
	"github.com/callpulse-hq/callpulse/internal/infrastructure/database"
	"github.com/callpulse-hq/callpulse/internal/infrastructure/storage"
	"github.com/callpulse-hq/callpulse/internal/usecase/pipeline"
	"github.com/callpulse-hq/callpulse/internal/usecase/scoring"
	pkgai "github.com/callpulse-hq/callpulse/pkg/ai"
	"github.com/callpulse-hq/callpulse/pkg/config"
	"github.com/callpulse-hq/callpulse/pkg/jwt"
)

// webhookDedupeTTL is how long a processed callback event stays marked
const webhookDedupeTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	log.Println("📦 Connecting to Redis...")
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	log.Println("📦 Connecting to object storage...")
	minioClient, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	callRepo := repository.NewCallRepository(db)
	asmClient := pkgai.NewAssemblyAIClient(&cfg.Assembly)
	groqClient := pkgai.NewGroqClient(&cfg.Groq)
	deduper := cache.NewWebhookDeduper(redisClient, webhookDedupeTTL)

	webhookURL := cfg.Assembly.WebhookBaseURL + "/v1/webhooks/assemblyai"
	pipelineService := pipeline.NewService(
		callRepo,
		asmClient,
		groqClient,
		minioClient,
		deduper,
		scoring.WeightsFromConfig(cfg.Scoring),
		webhookURL,
		logger,
	)

	sweeper := pipeline.NewSweeper(callRepo, cfg.Pipeline.StaleAfter, cfg.Pipeline.SweepInterval, logger)
	sweeper.Start()
	defer sweeper.Stop()

	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)

	callHandler := handler.NewCall(pipelineService, minioClient, logger)
	webhookHandler := handler.NewWebhook(pipelineService, cfg.Assembly.WebhookSecret, logger)

	router := handler.NewRouter(cfg, jwtManager, callHandler, webhookHandler)
	router.Setup(e)

	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
