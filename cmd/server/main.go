package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jafarshop/cartapi/internal/api"
	"github.com/jafarshop/cartapi/internal/cache"
	"github.com/jafarshop/cartapi/internal/config"
	"github.com/jafarshop/cartapi/internal/repository"
	mongorepo "github.com/jafarshop/cartapi/internal/repository/mongo"
	"github.com/jafarshop/cartapi/internal/repository/postgres"
	"github.com/jafarshop/cartapi/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Connect to postgres (catalog + coupon directory)
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	// Connect to mongo (cart store)
	mongoClient, err := mongorepo.NewConnection(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal("Failed to connect to mongo", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	// Connect to redis (cart read cache)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	defer redisClient.Close()

	repos := &repository.Repositories{
		Cart:    mongorepo.NewCartRepository(mongoClient.Database(cfg.Mongo.DBName), logger),
		Coupon:  postgres.NewCouponRepository(db, logger),
		Product: postgres.NewProductRepository(db, logger),
	}

	cartService := service.NewCartService(repos, cache.NewRedisCache(redisClient), logger)

	router := api.NewRouter(cfg, repos, cartService, logger)

	logger.Info("Starting server", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
