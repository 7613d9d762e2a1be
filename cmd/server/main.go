package main

import (
	"context"
	"log"
	"order_manager/internal/config"
	"order_manager/internal/database"
	"order_manager/internal/handlers"
	"order_manager/internal/logger"
	"order_manager/internal/migrations"
	"order_manager/internal/redis"
	"order_manager/internal/repository"
	"order_manager/internal/services"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer func() { _ = appLogger.Sync() }()

	gin.SetMode(cfg.GinMode)

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.LogLevel, appLogger)
	if err != nil {
		appLogger.Fatal("failed to initialize database", zap.Error(err))
	}

	ctx := context.Background()
	err = migrations.SeedDefaults(ctx, db, migrations.Options{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		SeedCatalog:   cfg.SeedCatalog,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("failed to seed default data", zap.Error(err))
	}

	// Redis is optional; without it GetOrder always reads the database.
	var orderCache services.OrderCache
	if cfg.RedisURL != "" {
		redisClient, err := redis.Initialize(cfg.RedisURL, time.Duration(cfg.CacheTTL)*time.Second)
		if err != nil {
			appLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		orderCache = redisClient
		appLogger.Info("order cache enabled", zap.Int("ttl_seconds", cfg.CacheTTL))
	}

	// Initialize services
	store := repository.NewStore(db)
	orderService := services.NewOrderService(store, services.NewTicketService(), services.OrderServiceOptions{
		Cache:                    orderCache,
		Logger:                   appLogger.Named("orders"),
		StrictPaymentTransitions: cfg.StrictPaymentTransitions,
	})
	catalogService := services.NewCatalogService(store)
	userService := services.NewUserService(store.Users())
	clientService := services.NewClientService(store)

	// Setup routes
	router := handlers.NewRouter(handlers.RouterDeps{
		Orders:  handlers.NewOrderHandler(orderService),
		Catalog: handlers.NewCatalogHandler(catalogService),
		Auth:    handlers.NewAuthHandler(userService, clientService),
		Logger:  appLogger,
	})

	// Start server
	appLogger.Info("server starting", zap.String("port", cfg.ServerPort))
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		appLogger.Fatal("failed to start server", zap.Error(err))
	}
}
