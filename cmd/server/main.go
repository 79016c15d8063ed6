package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"tavolo-pos/config"
	"tavolo-pos/internal/database"
	"tavolo-pos/internal/gateway/handlers"
	"tavolo-pos/internal/gateway/middleware"
	"tavolo-pos/internal/pos"
	"tavolo-pos/internal/user"
	"tavolo-pos/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	if cfg.Auth.JWTSecret != "" {
		utils.SetSecret(cfg.Auth.JWTSecret)
	}

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	posService := pos.NewService(db, redisClient)
	userService := user.NewService(db, cfg.Auth.TokenTTL)

	authHandler := handlers.NewAuthHTTPHandler(userService)
	catalogHandler := handlers.NewCatalogHTTPHandler(db, posService)
	posHandler := handlers.NewPOSHTTPHandler(posService)

	r := gin.New()
	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit("100-M"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().Unix()})
	})
	r.GET("/health/detailed", healthDetailedHandler(db, redisClient))

	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		products := protected.Group("/products")
		{
			products.POST("", catalogHandler.CreateProduct)
			products.GET("", catalogHandler.ListProducts)
			products.GET("/:id", catalogHandler.GetProduct)
			products.PUT("/:id", catalogHandler.UpdateProduct)
			products.DELETE("/:id", catalogHandler.DeleteProduct)
		}

		categories := protected.Group("/categories")
		{
			categories.POST("", catalogHandler.CreateCategory)
			categories.GET("", catalogHandler.ListCategories)
			categories.DELETE("/:id", catalogHandler.DeleteCategory)
		}

		tables := protected.Group("/tables")
		{
			tables.POST("", catalogHandler.CreateTable)
			tables.GET("", catalogHandler.ListTables)
			tables.DELETE("/:id", catalogHandler.DeleteTable)
		}

		posRoutes := protected.Group("/pos")
		{
			posRoutes.GET("/catalog", posHandler.GetCatalog)
			posRoutes.GET("/stock", posHandler.GetStock)

			posRoutes.GET("/cart", posHandler.GetCart)
			posRoutes.POST("/cart/items", posHandler.AddItem)
			posRoutes.POST("/cart/items/size", posHandler.ConfirmSize)
			posRoutes.DELETE("/cart/items/size", posHandler.CancelSize)
			posRoutes.PUT("/cart/items/quantity", posHandler.SetQuantity)
			posRoutes.DELETE("/cart/items", posHandler.RemoveItem)
			posRoutes.PUT("/cart/items/discount", posHandler.SetItemDiscount)
			posRoutes.PUT("/cart/discount", posHandler.SetOrderDiscount)
			posRoutes.PUT("/cart/table", posHandler.SetTable)
			posRoutes.PUT("/cart/dining-option", posHandler.SetDiningOption)
			posRoutes.POST("/cart/clear", posHandler.ClearCart)

			posRoutes.POST("/drafts", posHandler.SaveDraft)
			posRoutes.POST("/orders/:id/load", posHandler.LoadDraft)
			posRoutes.GET("/orders", posHandler.ListOrders)
			posRoutes.GET("/orders/:id", posHandler.GetOrder)
			posRoutes.DELETE("/orders/:id", posHandler.DeleteOrder)
			posRoutes.POST("/checkout", posHandler.Checkout)
		}
	}

	log.Printf("POS server listening on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// healthDetailedHandler probes the database and redis so operators can tell
// which dependency is down.
func healthDetailedHandler(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "healthy"
		}

		if err := redisClient.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "healthy"
		}

		overall := "healthy"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{
			"status":    overall,
			"checks":    checks,
			"timestamp": time.Now().Unix(),
		})
	}
}
