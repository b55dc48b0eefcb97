package db

import (
	"fmt"

	"github.com/loglens/backend/internal/logger"
	"github.com/loglens/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the postgres connection described by dsn and stores it in DB.
func Connect(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Error), // Reduce logging to avoid issues
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = conn
	logger.Info("Database connected successfully", nil)
	return conn, nil
}

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&models.LogFile{},
		&models.LogEntry{},
		&models.EntrySummary{},
	}
}

// AutoMigrate runs database migrations
func AutoMigrate(conn *gorm.DB) error {
	for _, m := range Models() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrating %T: %w", m, err)
		}
		logger.Debug("Table migrated", map[string]interface{}{"model": fmt.Sprintf("%T", m)})
	}

	logger.Info("All database migrations completed successfully", nil)
	return nil
}

// Ping checks that the connection is alive.
func Ping(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("database connection not initialized")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
