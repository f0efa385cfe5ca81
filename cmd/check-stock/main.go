package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jafarshop/cartapi/internal/config"
	"github.com/jafarshop/cartapi/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/check-stock/main.go <product-id>")
		os.Exit(1)
	}

	productID := os.Args[1]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := postgres.NewProductRepository(db, logger)
	product, err := repo.GetByID(context.Background(), productID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to look up product: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Product: %s (%s)\n", product.Title, product.SKU)
	fmt.Printf("Price: %.2f %s\n", product.Price, product.Currency)
	fmt.Printf("Stock: %d\n", product.Stock)
	fmt.Printf("Active: %v\n", product.IsActive)
}
