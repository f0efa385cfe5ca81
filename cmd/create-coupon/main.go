package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/cartapi/internal/config"
	"github.com/jafarshop/cartapi/internal/domain"
	"github.com/jafarshop/cartapi/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 5 {
		fmt.Println("Usage: go run cmd/create-coupon/main.go <code> <percent> <days-valid> <product-id>[,<product-id>...]")
		fmt.Println("Example: go run cmd/create-coupon/main.go SAVE20 20 30 a1b2c3,d4e5f6")
		os.Exit(1)
	}

	code := os.Args[1]
	percent, err := strconv.ParseFloat(os.Args[2], 64)
	if err != nil || percent < 1 || percent > 100 {
		fmt.Fprintln(os.Stderr, "percent must be a number between 1 and 100")
		os.Exit(1)
	}
	days, err := strconv.Atoi(os.Args[3])
	if err != nil || days < 1 {
		fmt.Fprintln(os.Stderr, "days-valid must be a positive integer")
		os.Exit(1)
	}
	products := strings.Split(os.Args[4], ",")

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

	now := time.Now()
	coupon := &domain.Coupon{
		Code:               domain.NormalizeCouponCode(code),
		DiscountType:       domain.DiscountTypePercentage,
		DiscountValue:      percent,
		ApplicableProducts: products,
		StartDate:          now,
		EndDate:            now.AddDate(0, 0, days),
		IsActive:           true,
	}

	repo := postgres.NewCouponRepository(db, logger)
	if err := repo.Create(context.Background(), coupon); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create coupon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Coupon created successfully!\n\n")
	fmt.Printf("Code: %s\n", coupon.Code)
	fmt.Printf("Discount: %.0f%%\n", coupon.DiscountValue)
	fmt.Printf("Valid until: %s\n", coupon.EndDate.Format("2006-01-02"))
	fmt.Printf("Applicable products: %s\n", strings.Join(coupon.ApplicableProducts, ", "))
}
