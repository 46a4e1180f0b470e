package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/careline/chatbot-backend/internal/config"
	"github.com/careline/chatbot-backend/internal/database"
	"github.com/careline/chatbot-backend/internal/seeder"
	"github.com/careline/chatbot-backend/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	// Command line flags
	dir     = flag.String("dir", "seed", "Directory containing master-data CSV exports")
	dryRun  = flag.Bool("dry-run", false, "Parse the files without writing to the database")
	verbose = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	// Initialize logger
	logger := utils.GetLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.Info("Starting master-data seeder...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer dbManager.Close()

	if !*dryRun {
		if err := dbManager.Migrate(); err != nil {
			logger.WithError(err).Fatal("Failed to run migrations")
		}
	}

	cache := database.NewCache(dbManager.Redis, logger)
	loader := seeder.NewLoader(dbManager.DB, cache, logger, *dryRun)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	counts, err := loader.LoadDir(ctx, *dir)
	if err != nil {
		logger.WithError(err).Fatal("Seeding failed")
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	logger.WithFields(logrus.Fields{
		"files":   len(counts),
		"rows":    total,
		"elapsed": time.Since(start).String(),
		"dry_run": *dryRun,
	}).Info("Seeding completed")
}
