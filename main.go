package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kit-sp-y/sa-laundry-api/config"
	"github.com/kit-sp-y/sa-laundry-api/controllers"
	"github.com/kit-sp-y/sa-laundry-api/middleware"
	"github.com/kit-sp-y/sa-laundry-api/models"
	"github.com/kit-sp-y/sa-laundry-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting SA Laundry API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	err = db.AutoMigrate(
		&models.User{},
		&models.ClothType{},
		&models.Coupon{},
		&models.UserCoupon{},
		&models.Order{},
		&models.ClothList{},
		&models.StatusEvent{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Photo storage is optional: without a bucket the photo endpoints
	// report STORAGE_UNAVAILABLE and everything else works
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3: %v", err)
		}
		services.InitPhotoService(s3Service)
		log.Println("Photo storage initialized")
	} else {
		log.Println("AWS_S3_BUCKET not set, intake photo storage disabled")
	}

	// Initialize Gin router
	router := gin.Default()

	// The front-end is a browser app on another origin
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	authRequired := middleware.EnsureValidToken(cfg)
	staffOnly := middleware.RequireRole(models.RoleCashier, models.RoleLaundryAttendant, models.RoleAdmin)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		// Profile
		v1.POST("/users", authRequired, controllers.CreateUser)
		v1.GET("/users/me", authRequired, controllers.GetMyProfile)
		v1.PUT("/users/me", authRequired, controllers.UpdateMyProfile)
		v1.GET("/users/customers", authRequired, staffOnly, controllers.ListCustomers)

		// Cloth catalog
		v1.GET("/cloths/", authRequired, controllers.ListCloths)
		v1.POST("/cloths/", authRequired, adminOnly, controllers.CreateCloth)
		v1.PUT("/cloths/:id", authRequired, adminOnly, controllers.UpdateCloth)

		// Coupon definitions
		v1.GET("/coupons", authRequired, controllers.ListCoupons)
		v1.GET("/coupons/:id", authRequired, controllers.GetCoupon)
		v1.PUT("/coupons/:id", authRequired, adminOnly, controllers.UpdateCoupon)

		// Customer coupon balances
		v1.GET("/user_coupons/user/:id", authRequired, controllers.ListUserCoupons)
		v1.POST("/user_coupons/", authRequired, staffOnly, controllers.CreateUserCoupon)
		v1.PUT("/user_coupons/:id", authRequired, staffOnly, controllers.UpdateUserCoupon)

		// Orders
		v1.POST("/orders/", authRequired, staffOnly, controllers.Checkout)
		v1.GET("/orders", authRequired, controllers.ListOrders)
		v1.GET("/orders/:id", authRequired, controllers.GetOrder)
		v1.PUT("/orders/:id", authRequired, staffOnly, controllers.UpdateOrder)
		v1.GET("/orders/:id/history", authRequired, controllers.GetOrderHistory)
		v1.POST("/orders/:id/photo", authRequired, staffOnly, controllers.UploadOrderPhoto)
		v1.GET("/orders/:id/photo", authRequired, controllers.GetOrderPhoto)

		// Step-wise line-item endpoint used by the existing front-end
		v1.POST("/cloth_lists/", authRequired, staffOnly, controllers.CreateClothList)
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
		"message": "SA Laundry API is running",
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
