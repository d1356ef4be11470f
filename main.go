package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/handlers"
	"github.com/SAP-F-2025/lms-service/internal/mail"
	"github.com/SAP-F-2025/lms-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/lms-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/session"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
	"github.com/SAP-F-2025/lms-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, running without cache", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		CasdoorConfig: casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		},
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()
	cacheManager := repoManager.GetCacheManager()

	// Event bus: Kafka when brokers are configured, in-process otherwise
	bus, err := events.NewBus(cfg.Kafka, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event bus: %v", err)
	}
	publisher := events.NewWatermillPublisher(bus.Publisher, slogLogger)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	hub := events.NewHub(bus.Broadcast, slogLogger)
	if err := hub.Start(workerCtx); err != nil {
		log.Fatalf("Failed to start live feed: %v", err)
	}

	consumer, err := events.NewConsumer(bus.Worker, slogLogger)
	if err != nil {
		log.Fatalf("Failed to create event consumer: %v", err)
	}

	store := session.NewStore(repo.Account(), cacheManager.Session, cfg.AdminEmail, slogLogger).WithTTL(cfg.SessionTTL)
	mailer := mail.NewMailer(cfg.SendGrid, slogLogger)

	services.NewEventHandlers(mailer, store, slogLogger, cfg.PublicBaseURL).Register(consumer)
	go func() {
		if err := consumer.Run(workerCtx); err != nil {
			logger.Error("Event consumer stopped", "error", err)
		}
	}()

	uploader, err := storage.NewUploader(cfg.OSS, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Initialize services
	serviceManager := services.NewDefaultServiceManager(services.Dependencies{
		Repo:      repo,
		Cache:     cacheManager,
		Logger:    slogLogger,
		Validator: validator.New(),
		Publisher: publisher,
		Sessions:  store,
		Mailer:    mailer,
		Uploader:  uploader,
	}, cfg.AdminEmail, cfg.PublicBaseURL)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg)

	authMiddleware := handlers.NewCasdoorAuthMiddleware(repo.Identity(), store, cfg.EntryRoute, logger)
	handlerManager := handlers.NewHandlerManager(serviceManager, authMiddleware, store, hub, handlers.RouterConfig{
		EntryRoute:    cfg.EntryRoute,
		AllowedOrigin: cfg.PublicBaseURL,
	}, logger)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "kafka", cfg.Kafka.Enabled())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Closes the event publisher
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	stopWorkers()
	if err := consumer.Close(); err != nil {
		logger.Error("Failed to close event consumer", "error", err)
	}
	if err := bus.Close(); err != nil {
		logger.Error("Failed to close event bus", "error", err)
	}

	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to close database", "error", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
