package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careline/chatbot-backend/internal/api/handlers"
	"github.com/careline/chatbot-backend/internal/chat"
	"github.com/careline/chatbot-backend/internal/compose"
	"github.com/careline/chatbot-backend/internal/config"
	"github.com/careline/chatbot-backend/internal/database"
	"github.com/careline/chatbot-backend/internal/docdb"
	"github.com/careline/chatbot-backend/internal/docstore"
	"github.com/careline/chatbot-backend/internal/health"
	"github.com/careline/chatbot-backend/internal/llm"
	"github.com/careline/chatbot-backend/internal/logging"
	"github.com/careline/chatbot-backend/internal/middleware"
	"github.com/careline/chatbot-backend/internal/migration"
	"github.com/careline/chatbot-backend/internal/repository"
	"github.com/careline/chatbot-backend/internal/search"
	"github.com/careline/chatbot-backend/internal/translator"
	"github.com/careline/chatbot-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	utils.InitLogger()
	logger := utils.GetLogger()

	// Request-scoped log capture for per-session log uploads
	hook := logging.NewHook()
	logger.AddHook(hook)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.ValidateGateways(); err != nil {
		logger.WithError(err).Fatal("Invalid gateway configuration")
	}

	// Database and cache
	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer dbManager.Close()

	runner := migration.NewRunner(dbManager, logger)
	if err := runner.RunMigrations("migrations"); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	repos := repository.NewRepositoryManager(dbManager.DB)
	cache := database.NewCache(dbManager.Redis, logger)

	// Gateway clients
	searchClient := search.NewClient(cfg.Search.Endpoint, cfg.Search.APIKey, logger)
	llmClient := llm.NewClient(
		cfg.LLM.BalancerURL,
		llm.Deployment{
			APIBase:    cfg.LLM.Endpoint,
			APIKey:     cfg.LLM.APIKey,
			APIVersion: cfg.LLM.APIVersion,
			Model:      cfg.LLM.ChatModel,
		},
		cfg.LLM.EmbeddingModel,
		cfg.LLM.ContextWindow,
		cfg.LLM.ReservedTokens,
		logger,
	)
	llmClient.SetRetryPolicy(cfg.LLM.EmbeddingTries, time.Duration(cfg.LLM.EmbeddingDelay)*time.Second)
	translatorClient := translator.NewClient(cfg.Translator.Endpoint, cfg.Translator.APIKey, cfg.Translator.Region, logger)
	store := docstore.NewClient(cfg.Storage.Endpoint, cfg.Storage.APIKey, cfg.Storage.Container, logger)
	records := docdb.NewClient(cfg.DocDB.Endpoint, cfg.DocDB.APIKey, cfg.DocDB.Database, cfg.DocDB.Container, logger)

	// Pipeline
	engine := search.NewEngine(
		searchClient,
		llmClient,
		store,
		repos.ProductMaster,
		repos.SalesModelMap,
		repos.ManualList,
		repos.IntentMaster,
		cache,
		cfg.Search.TopK,
		logger,
	)
	composer := compose.NewComposer(llmClient, translatorClient, logger)
	flusher := logging.NewFlusher(hook, store, cfg.Storage.LogPath, logger)
	driver := chat.NewDriver(
		cfg,
		translatorClient,
		llmClient,
		engine,
		composer,
		records,
		records,
		store,
		repos,
		flusher,
		logger,
	)

	// Background health monitoring
	checker := health.NewChecker(
		dbManager,
		cache,
		repos.SystemHealth,
		logger,
		cfg.Search.Endpoint,
		cfg.LLM.Endpoint,
		cfg.Translator.Endpoint,
	)
	healthCtx, stopHealth := context.WithCancel(context.Background())
	defer stopHealth()
	go checker.PeriodicHealthCheck(healthCtx, 30*time.Second)

	// HTTP server
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestID())
	rateLimiter := middleware.NewRateLimiter(dbManager.Redis, 300, logger)
	router.Use(rateLimiter.RateLimit())

	requestTimeout := time.Duration(cfg.Server.RequestTimeout) * time.Second
	chatHandler := handlers.NewChatHandler(driver, cfg.Server.AuthToken, requestTimeout, logger)
	healthHandler := handlers.NewHealthHandler(checker, logger)

	router.POST("/api/chat", chatHandler.HandleChat)
	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/health/live", healthHandler.HandleLiveness)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting chatbot backend server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	stopHealth()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Forced server shutdown")
	}

	logger.Info("Server stopped")
}
