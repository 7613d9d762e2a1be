package database

import (
	"fmt"
	"order_manager/internal/models"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database without migrating it.
func Open(driver, databaseURL, logLevel string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "", "postgres", "postgresql":
		dialector = postgres.Open(databaseURL)
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	// Configure GORM
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(logLevel)),
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Initialize connects and migrates every model.
func Initialize(driver, databaseURL, logLevel string, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(driver, databaseURL, logLevel)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("database connected and migrated", zap.String("driver", driver))
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "warn", "info":
		return logger.Warn
	case "silent":
		return logger.Silent
	default:
		return logger.Error
	}
}
