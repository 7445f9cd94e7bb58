// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tokosakti/toko-backend/internal/config"
	"github.com/tokosakti/toko-backend/internal/handlers"
	"github.com/tokosakti/toko-backend/internal/middleware"
	"github.com/tokosakti/toko-backend/internal/services"
	"github.com/tokosakti/toko-backend/internal/utils"
)

// Initialize wires services together and mounts the HTTP surface. The
// returned OrderService is also used by the expiry sweeper in main.
func Initialize(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) (*gin.Engine, *services.OrderService) {
	// Initialize services
	notificationService := services.NewNotificationService(db, redisClient, cfg)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage service")
	}

	catalogService := services.NewCatalogService(db, redisClient, notificationService)
	cartService := services.NewCartService(db, notificationService)
	orderService := services.NewOrderService(db, catalogService, storageService, notificationService, services.SystemClock(), cfg.Checkout)
	authService := services.NewAuthService(db, cfg, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
			auth.PUT("/profile", middleware.AuthRequired(), authHandler.UpdateProfile)
		}

		// Catalog routes (public browsing, like requires auth)
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), catalogHandler.GetProducts)
			products.GET("/:id", middleware.OptionalAuth(), catalogHandler.GetProduct)
			products.POST("/:id/like", middleware.AuthRequired(), catalogHandler.LikeProduct)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", catalogHandler.GetCategories)
		}

		// Cart routes
		cart := v1.Group("/cart")
		cart.Use(middleware.AuthRequired())
		{
			cart.GET("", cartHandler.GetCart)
			cart.POST("/add", cartHandler.AddItem)
			cart.PUT("/:id", cartHandler.UpdateItem)
			cart.DELETE("/:id", cartHandler.RemoveItem)
			cart.DELETE("", cartHandler.ClearCart)
		}

		// Checkout routes
		checkout := v1.Group("/checkout")
		checkout.Use(middleware.AuthRequired())
		{
			checkout.GET("", orderHandler.PreviewCheckout)
			checkout.POST("", middleware.CheckoutRateLimit(), orderHandler.Checkout)
		}

		// Transaction routes
		transactions := v1.Group("/transactions")
		transactions.Use(middleware.AuthRequired())
		{
			transactions.GET("", orderHandler.GetMyOrders)
			transactions.GET("/:id", orderHandler.GetOrder)
			transactions.POST("/:id/payment-proof", middleware.CheckoutRateLimit(), orderHandler.UploadPaymentProof)
			transactions.GET("/:id/payment-proof", orderHandler.GetPaymentProof)
			transactions.POST("/:id/cancel", orderHandler.CancelOrder)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.GetFeed)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			adminTransactions := admin.Group("/transactions")
			{
				adminTransactions.GET("", orderHandler.GetAllOrders)
				adminTransactions.PUT("/:id/process", orderHandler.ProcessOrder)
				adminTransactions.PUT("/:id/complete", orderHandler.CompleteOrder)
			}
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r, orderService
}
