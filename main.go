package main

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"botstudio/internal/config"
	"botstudio/internal/crypto"
	"botstudio/internal/notify"
	"botstudio/internal/repository"
	"botstudio/internal/server"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// .env is optional, real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	// Load configuration
	cfgPath := "configs/config.yml"
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Cipher for HTTP action secrets, keyed from MASTER_KEY.
	cipher, err := crypto.NewCipher()
	if err != nil {
		logger.Fatal("Failed to initialize cipher", zap.Error(err))
	}

	// Telegram notifier for terminal pipeline outcomes (optional)
	notifier, err := notify.NewNotifier(cfg, logger)
	if err != nil {
		logger.Warn("Failed to initialize notifier, continuing without it", zap.Error(err))
		notifier = nil
	}

	log := logrus.New()

	// Initialize and run the server
	srv := server.NewServer(db, cfg, cipher, notifier, log, logger)
	srv.Run(cfg.Server.Port)
}
