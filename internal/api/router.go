package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/cartapi/internal/api/handlers"
	"github.com/jafarshop/cartapi/internal/api/middleware"
	"github.com/jafarshop/cartapi/internal/config"
	"github.com/jafarshop/cartapi/internal/repository"
	"github.com/jafarshop/cartapi/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, cartService *service.CartService, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Cart routes (identity resolved per request: bearer user or guest session)
	cartRoutes := router.Group("/cart")
	cartRoutes.Use(middleware.Identity(cfg, logger))
	{
		cartRoutes.GET("", handlers.HandleGetCart(cartService, logger))
		cartRoutes.POST("/add", handlers.HandleAddToCart(cartService, logger))
		cartRoutes.PUT("/item/:itemId", handlers.HandleUpdateItem(cartService, logger))
		cartRoutes.DELETE("/item/:itemId", handlers.HandleRemoveItem(cartService, logger))
		cartRoutes.POST("/clear", handlers.HandleClearCart(cartService, logger))
		cartRoutes.POST("/merge", handlers.HandleMergeCarts(cartService, logger))
		cartRoutes.POST("/apply-coupon", handlers.HandleApplyCoupon(cartService, logger))
		cartRoutes.POST("/remove-coupon", handlers.HandleRemoveCoupon(cartService, logger))
	}

	// Admin routes (back-office key)
	adminRoutes := router.Group("/admin")
	adminRoutes.Use(middleware.AdminAuth(cfg, logger))
	{
		adminRoutes.POST("/coupons", handlers.HandleCreateCoupon(repos, logger))
		adminRoutes.GET("/coupons", handlers.HandleListCoupons(repos, logger))
		adminRoutes.GET("/coupons/:code", handlers.HandleGetCoupon(repos, logger))
		adminRoutes.PUT("/coupons/:code", handlers.HandleUpdateCoupon(repos, logger))
		adminRoutes.DELETE("/coupons/:code", handlers.HandleDeleteCoupon(repos, logger))
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
