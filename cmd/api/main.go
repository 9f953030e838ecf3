package main

import (
	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/mailer"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/storage"
	"backend/internal/websocket"
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Food Product Catalog API
// @version         1.0
// @description     API for a multi-role food product catalog: companies register products, admins review them, users rate them.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// External services
	objectStore, err := storage.NewS3(context.Background())
	if err != nil {
		log.Fatalf("Object storage setup failed: %v", err)
	}
	mail := mailer.NewSendGrid()

	// Set up dependencies (Repository -> Service -> Handler)
	txMgr := repository.NewTransactionManager(db)
	accountRepo := repository.NewAccountRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	productRepo := repository.NewProductRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	newsRepo := repository.NewNewsRepository(db)

	accountService := service.NewAccountService(accountRepo, tokenRepo, productRepo, auditRepo, objectStore, wsHub, middleware.GetJWTSecret)
	otpService := service.NewOTPService(accountRepo, otpRepo, mail)
	productService := service.NewProductService(productRepo, accountRepo, auditRepo, txMgr, objectStore, wsHub)
	ratingService := service.NewRatingService(ratingRepo, productRepo)
	nutritionService := service.NewNutritionService(productRepo)
	newsService := service.NewNewsService(newsRepo)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	accountHandler := handler.NewAccountHandler(accountService)
	otpHandler := handler.NewOTPHandler(otpService)
	productHandler := handler.NewProductHandler(productService, ratingService, nutritionService)
	newsHandler := handler.NewNewsHandler(newsService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Background cleanup jobs
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 30s", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if n, err := otpRepo.DeleteExpired(ctx, time.Now()); err != nil {
			log.Printf("OTP cleanup failed: %v", err)
		} else if n > 0 {
			log.Printf("Purged %d expired OTPs", n)
		}
	}); err != nil {
		log.Fatalf("Scheduler setup failed: %v", err)
	}
	if _, err := scheduler.AddFunc("@every 1h", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := tokenRepo.DeleteExpired(ctx, time.Now()); err != nil {
			log.Printf("Refresh token cleanup failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Scheduler setup failed: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for the admin review feed
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	accountHandler.RegisterRoutes(router.Group(""))
	otpHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	newsHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
