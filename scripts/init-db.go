package main

import (
	"context"
	"fmt"
	"log"
	"order_manager/internal/config"
	"order_manager/internal/database"
	"order_manager/internal/logger"
	"order_manager/internal/migrations"
)

func main() {
	fmt.Println("Initializing database...")

	// Load configuration
	cfg := config.Load()

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer func() { _ = appLogger.Sync() }()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.LogLevel, appLogger)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// The script always seeds the demo catalog.
	err = migrations.SeedDefaults(context.Background(), db, migrations.Options{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		SeedCatalog:   true,
	}, appLogger)
	if err != nil {
		log.Fatal("Failed to seed default data:", err)
	}

	fmt.Println("Database initialization completed successfully!")
	fmt.Printf("Admin: %s\n", cfg.AdminEmail)
}
