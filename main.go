package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/tailor-orders-api/config"
	"github.com/atelier-labs/tailor-orders-api/controllers"
	"github.com/atelier-labs/tailor-orders-api/middleware"
	"github.com/atelier-labs/tailor-orders-api/models"
	"github.com/atelier-labs/tailor-orders-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting Tailor Orders API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := config.InitLogger(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.TailorOrder{},
		&models.AccessoryLine{},
		&models.OrderStatusLog{},
		&models.ManufacturingOrder{},
		&models.SaleOrder{},
		&models.SaleOrderLine{},
		&models.Product{},
		&models.StockLevel{},
		&models.StockMove{},
		&models.Document{},
		&models.DocumentAttachment{},
		&models.MeasurementSnapshot{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize S3 storage for document attachments
	if _, err := services.InitS3Service(); err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}

	// Kafka event publishing (disabled without brokers)
	if _, err := services.InitKafkaNotifier(cfg); err != nil {
		log.Fatalf("Failed to initialize Kafka notifier: %v", err)
	}

	// Redis KPI cache (disabled without REDIS_URL)
	if _, err := services.InitRedisCache(cfg); err != nil {
		log.Fatalf("Failed to initialize redis cache: %v", err)
	}

	// Initialize Gin router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		authenticated := v1.Group("")
		authenticated.Use(middleware.EnsureValidToken(cfg))
		{
			// Users
			authenticated.POST("/users", controllers.CreateUser)
			authenticated.GET("/users/me", controllers.GetMyProfile)
			authenticated.PUT("/users/me", controllers.UpdateMyProfile)

			// Orders (staff)
			authenticated.POST("/orders", controllers.CreateOrder)
			authenticated.GET("/orders", controllers.ListOrders)
			authenticated.GET("/orders/:id", controllers.GetOrder)
			authenticated.PUT("/orders/:id", controllers.UpdateOrder)
			authenticated.POST("/orders/:id/status", controllers.ChangeOrderStatus)
			authenticated.POST("/orders/:id/check-and-confirm", controllers.CheckAndConfirmOrder)
			authenticated.POST("/orders/:id/approve-materials", controllers.ApproveMaterials)
			authenticated.PUT("/orders/:id/qc-checklist", controllers.UpdateQCChecklist)
			authenticated.POST("/orders/:id/qc-approve", controllers.ApproveQC)
			authenticated.PUT("/orders/:id/fabric-qty", controllers.SetManualFabricQty)
			authenticated.POST("/orders/:id/fabric-qty/reset", controllers.ResetFabricQty)
			authenticated.POST("/orders/:id/accessories", controllers.AddAccessoryLine)
			authenticated.DELETE("/orders/:id/accessories/:lineId", controllers.RemoveAccessoryLine)
			authenticated.GET("/orders/:id/status-log", controllers.GetOrderStatusLog)

			// Order documents (staff)
			authenticated.GET("/orders/:id/documents", controllers.ListOrderDocuments)
			authenticated.POST("/orders/:id/documents/:type", controllers.UploadOrderDocument)
			authenticated.GET("/orders/:id/documents/:type/download", controllers.DownloadOrderDocument)
			authenticated.DELETE("/attachments/:id", controllers.DeleteDocumentAttachment)

			// Measurements
			authenticated.POST("/measurements/compute", controllers.ComputeAIMeasurements)
			authenticated.POST("/orders/:id/measurements/apply", controllers.ApplyAIMeasurements)
			authenticated.GET("/measurements/prefill", controllers.GetMeasurementPrefill)

			// Manufacturing orders
			authenticated.GET("/manufacturing-orders", controllers.ListManufacturingOrders)
			authenticated.GET("/manufacturing-orders/:id", controllers.GetManufacturingOrder)
			authenticated.POST("/manufacturing-orders/:id/stage", controllers.SetMOStage)
			authenticated.POST("/manufacturing-orders/:id/done", controllers.MarkMODone)

			// Products and stock
			authenticated.POST("/products", controllers.CreateProduct)
			authenticated.GET("/products", controllers.ListProducts)
			authenticated.PUT("/stock-levels", controllers.SetStockLevel)
			authenticated.GET("/stock-levels", controllers.GetStockLevels)

			// Reports
			authenticated.GET("/reports/kpis", controllers.GetOrderKPIs)

			// Customer portal
			authenticated.GET("/portal/orders", controllers.PortalListOrders)
			authenticated.GET("/portal/orders/:id", controllers.PortalGetOrder)
			authenticated.POST("/portal/orders/:id/approve", controllers.PortalApproveOrder)
			authenticated.POST("/portal/orders/:id/documents/:type", controllers.PortalUploadDocument)
			authenticated.GET("/portal/orders/:id/documents/:type/download", controllers.PortalDownloadDocument)
		}
	}

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Tailor Orders API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
