package main

import (
	"github.com/loglens/backend/internal/config"
	"github.com/loglens/backend/internal/db"
	"github.com/loglens/backend/internal/logger"
)

func main() {
	cfg, loaded, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}
	if err := logger.Initialize(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		logger.Fatal("Failed to initialize logger", map[string]interface{}{"error": err.Error()})
	}
	if !loaded {
		logger.Warn("No .env file found, using system environment variables", nil)
	}
	if !cfg.DatabaseEnabled() {
		logger.Fatal("No database configured, set DATABASE_URL or DB_HOST", nil)
	}

	conn, err := db.Connect(cfg.DSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Running database migrations...", nil)
	if err := db.AutoMigrate(conn); err != nil {
		logger.Fatal("Migration failed", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("Database migrations completed successfully", nil)
}
