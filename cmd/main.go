package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storefront-service/internal/catalog"
	"storefront-service/internal/clients"
	"storefront-service/internal/config"
	"storefront-service/internal/events"
	"storefront-service/internal/handlers"
	"storefront-service/internal/middleware"
	"storefront-service/internal/repository"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Storefront API
// @version 1.0.0
// @description Multi-tenant storefront backoffice: catalog with bulk Excel import, categories, orders, carts, free cash and discounts
// @termsOfService http://swagger.io/terms/

// @contact.name Storefront API Support
// @contact.url http://www.example.com/support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8094
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	// Set Redis password from GCP Secret Manager
	redisOpts.Password = secrets.GetRedisPassword()
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db, redisClient)
	productRepo := repository.NewProductRepository(db, redisClient)
	orderRepo := repository.NewOrderRepository(db, redisClient)
	freeCashRepo := repository.NewFreeCashRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	cartRepo := repository.NewCartRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize event publisher only if NATS_URL is set
	var eventsPublisher *events.Publisher
	natsURL := os.Getenv("NATS_URL")
	if natsURL != "" {
		var err error
		eventsPublisher, err = events.NewPublisher(logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	// Initialize clients
	assetClient := clients.NewAssetClient()
	notificationClient := clients.NewNotificationClient()

	// Catalog pipeline: asset resolver -> category tree -> assembler -> orchestrator
	assetResolver := catalog.NewResolver(assetClient, logger)
	treeService := catalog.NewTreeService(categoryRepo, productRepo, assetResolver, logger)
	assembler := catalog.NewAssembler(treeService, assetResolver, logger)
	var progress catalog.ProgressSink
	if eventsPublisher != nil {
		progress = events.ProgressEmitter{Publisher: eventsPublisher}
	}
	orchestrator := catalog.NewOrchestrator(assembler, productRepo, assetResolver, progress, logger)
	log.Println("✓ Catalog import pipeline initialized")

	// Initialize handlers
	productsHandler := handlers.NewProductsHandler(productRepo, categoryRepo, treeService, assetResolver, eventsPublisher, logger)
	categoriesHandler := handlers.NewCategoriesHandler(categoryRepo, productRepo, treeService, logger)
	importHandler := handlers.NewImportHandler(orchestrator, logger)
	ordersHandler := handlers.NewOrdersHandler(orderRepo, cartRepo, productRepo, freeCashRepo, settingsRepo, notificationClient, eventsPublisher, logger)
	freeCashHandler := handlers.NewFreeCashHandler(freeCashRepo, categoryRepo, logger)
	discountsHandler := handlers.NewDiscountsHandler(discountRepo, categoryRepo, logger)
	cartHandler := handlers.NewCartHandler(cartRepo, productRepo, settingsRepo, notificationClient, logger)
	settingsHandler := handlers.NewSettingsHandler(settingsRepo, logger)

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("storefront-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("storefront-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("tesseract", "storefront_service")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize RBAC middleware
	staffServiceURL := os.Getenv("STAFF_SERVICE_URL")
	if staffServiceURL == "" {
		staffServiceURL = "http://staff-service:8080"
	}
	rbacMw := rbac.NewMiddlewareWithURL(staffServiceURL, nil)
	log.Println("✓ RBAC middleware initialized")

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("storefront-service"))
	router.Use(gosharedmw.CompressionMiddleware())

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)
	router.GET("/metrics", gosharedmw.Handler())

	// Protected API routes
	api := router.Group("/api/v1")

	// Initialize Istio auth middleware for Keycloak JWT validation
	istioAuthLogger := logrus.NewEntry(logger).WithField("component", "istio_auth")
	istioAuth := gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
		RequireAuth:        true,
		AllowLegacyHeaders: true, // Allow X-User-ID, X-Tenant-ID during migration
		Logger:             istioAuthLogger,
	})

	// In development: use DevelopmentAuthMiddleware for local testing
	// In production: use IstioAuth which reads x-jwt-claim-* headers from Istio
	if cfg.Environment == "development" {
		api.Use(middleware.DevelopmentAuthMiddleware())
		api.Use(middleware.TenantMiddleware()) // Still needed in dev mode
	} else {
		api.Use(istioAuth)
	}

	// API routes
	v1 := api.Group("")
	{
		products := v1.Group("/products")
		{
			products.GET("", rbacMw.RequirePermission(rbac.PermissionProductsRead), productsHandler.GetProducts)
			products.GET("/:id", rbacMw.RequirePermission(rbac.PermissionProductsRead), productsHandler.GetProduct)

			products.POST("", rbacMw.RequirePermission(rbac.PermissionProductsCreate), productsHandler.CreateProduct)
			products.POST("/:id/duplicate", rbacMw.RequirePermission(rbac.PermissionProductsCreate), productsHandler.DuplicateProduct)

			products.PUT("/:id", rbacMw.RequirePermission(rbac.PermissionProductsUpdate), productsHandler.UpdateProduct)
			products.PUT("/:id/rate", rbacMw.RequirePermission(rbac.PermissionProductsUpdate), productsHandler.ReviseRate)
			products.PUT("/:id/status", rbacMw.RequirePermission(rbac.PermissionProductsUpdate), productsHandler.ToggleActive)
			products.POST("/bulk/status", rbacMw.RequirePermission(rbac.PermissionProductsUpdate), productsHandler.BulkUpdateStatus)

			products.DELETE("/:id", rbacMw.RequirePermission(rbac.PermissionProductsDelete), productsHandler.DeleteProduct)

			// Bulk import: template download, batch import, batch override
			products.GET("/import/template", rbacMw.RequirePermission(rbac.PermissionProductsImport), importHandler.GetImportTemplate)
			products.POST("/import", rbacMw.RequirePermission(rbac.PermissionProductsImport), importHandler.ImportProducts)
			products.POST("/import/override", rbacMw.RequirePermission(rbac.PermissionProductsImport), importHandler.OverrideProducts)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", rbacMw.RequirePermission(rbac.PermissionCategoriesRead), categoriesHandler.GetCategories)
			categories.GET("/tree", rbacMw.RequirePermission(rbac.PermissionCategoriesRead), categoriesHandler.GetCategoryTree)
			categories.GET("/:id", rbacMw.RequirePermission(rbac.PermissionCategoriesRead), categoriesHandler.GetCategory)
			categories.POST("", rbacMw.RequirePermission(rbac.PermissionCategoriesCreate), categoriesHandler.CreateCategory)
			categories.PUT("/:id", rbacMw.RequirePermission(rbac.PermissionCategoriesUpdate), categoriesHandler.UpdateCategory)
			categories.DELETE("/:id", rbacMw.RequirePermission(rbac.PermissionCategoriesDelete), categoriesHandler.DeleteCategory)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("", rbacMw.RequirePermission(rbac.PermissionOrdersRead), ordersHandler.GetOrders)
			orders.GET("/:id", rbacMw.RequirePermission(rbac.PermissionOrdersRead), ordersHandler.GetOrder)
			orders.GET("/user/:userId", rbacMw.RequirePermission(rbac.PermissionOrdersRead), ordersHandler.GetUserOrders)
			orders.PUT("/:id/status", rbacMw.RequirePermission(rbac.PermissionOrdersUpdate), ordersHandler.UpdateOrderStatus)
			orders.PUT("/:id/payment-status", rbacMw.RequirePermission(rbac.PermissionOrdersUpdate), ordersHandler.UpdatePaymentStatus)
			orders.PUT("/:id/address", rbacMw.RequirePermission(rbac.PermissionOrdersUpdate), ordersHandler.ReviseAddress)
			orders.PUT("/:id/shipping", rbacMw.RequirePermission(rbac.PermissionOrdersUpdate), ordersHandler.ReviseShipping)
			orders.POST("/sweep", rbacMw.RequirePermission(rbac.PermissionOrdersUpdate), ordersHandler.SweepOldOrders)
		}

		freeCash := v1.Group("/free-cash")
		{
			freeCash.GET("", rbacMw.RequirePermission(rbac.PermissionMarketingCouponsView), freeCashHandler.GetFreeCash)
			freeCash.POST("", rbacMw.RequirePermission(rbac.PermissionMarketingCouponsManage), freeCashHandler.CreateFreeCash)
			freeCash.DELETE("/:id", rbacMw.RequirePermission(rbac.PermissionMarketingCouponsManage), freeCashHandler.DeleteFreeCash)
			freeCash.POST("/sweep", rbacMw.RequirePermission(rbac.PermissionMarketingCouponsManage), freeCashHandler.SweepExpired)
		}

		discounts := v1.Group("/discounts")
		{
			discounts.GET("", rbacMw.RequirePermission(rbac.PermissionMarketingCouponsView), discountsHandler.GetDiscounts)
			discounts.GET("/:id", rbacMw.RequirePermission(rbac.PermissionMarketingCouponsView), discountsHandler.GetDiscount)
			discounts.POST("", rbacMw.RequirePermission(rbac.PermissionMarketingCouponsManage), discountsHandler.CreateDiscount)
			discounts.PUT("/:id/deactivate", rbacMw.RequirePermission(rbac.PermissionMarketingCouponsManage), discountsHandler.DeactivateDiscount)
			discounts.DELETE("/:id", rbacMw.RequirePermission(rbac.PermissionMarketingCouponsManage), discountsHandler.DeleteDiscount)
		}

		carts := v1.Group("/carts")
		{
			carts.POST("/reminders", rbacMw.RequirePermission(rbac.PermissionMarketingCartsRecover), cartHandler.SendReminders)
		}

		settings := v1.Group("/settings")
		{
			settings.GET("", rbacMw.RequirePermission(rbac.PermissionShippingRead), settingsHandler.GetSettings)
			settings.PUT("", rbacMw.RequirePermission(rbac.PermissionShippingManage), settingsHandler.UpdateSettings)
			settings.GET("/pages", rbacMw.RequirePermission(rbac.PermissionShippingRead), settingsHandler.GetPolicyPages)
			settings.GET("/pages/:slug", rbacMw.RequirePermission(rbac.PermissionShippingRead), settingsHandler.GetPolicyPage)
			settings.PUT("/pages", rbacMw.RequirePermission(rbac.PermissionShippingManage), settingsHandler.UpsertPolicyPage)
			settings.DELETE("/pages/:slug", rbacMw.RequirePermission(rbac.PermissionShippingManage), settingsHandler.DeletePolicyPage)
		}
	}

	// =============================================================================
	// PUBLIC STOREFRONT ENDPOINTS (no auth required, only tenant context)
	// =============================================================================
	storefront := router.Group("/api/v1/storefront")
	storefront.Use(middleware.TenantMiddleware()) // Require tenant context only
	{
		// Public catalog browsing
		storefront.GET("/products", productsHandler.GetProducts)
		storefront.GET("/products/:id", productsHandler.GetProduct)
		storefront.GET("/categories", categoriesHandler.GetCategories)
		storefront.GET("/categories/tree", categoriesHandler.GetCategoryTree)

		// Cart and checkout
		storefront.GET("/cart/:userId", cartHandler.GetCart)
		storefront.POST("/cart/:userId/items", cartHandler.AddLine)
		storefront.DELETE("/cart/:userId/items/:productId", cartHandler.RemoveLine)
		storefront.DELETE("/cart/:userId", cartHandler.ClearCart)
		storefront.POST("/checkout/:userId", ordersHandler.Checkout)

		// Order history and promotional credit
		storefront.GET("/orders/user/:userId", ordersHandler.GetUserOrders)
		storefront.GET("/free-cash/user/:userId", freeCashHandler.GetUserFreeCash)

		// Published policy pages
		storefront.GET("/pages", settingsHandler.GetPolicyPages)
		storefront.GET("/pages/:slug", settingsHandler.GetPublishedPolicyPage)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Storefront service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down storefront-service...")

	// Shutdown tracer provider
	if tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}

	log.Println("Storefront service stopped")
}
