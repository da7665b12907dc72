package main

import (
	"log"
	"os"

	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/ledger"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Inventory Valuation API
// @version         1.0
// @description     Back-office inventory API: weighted-average costing, append-only stock journal, and document orchestration for purchases, sales, returns, and debts.
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

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	mutationRepo := repository.NewStockMutationRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	debtRepo := repository.NewDebtRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Stock ledger
	stockLedger := ledger.New(productRepo, variantRepo, mutationRepo)

	// Services
	userService := service.NewUserService(userRepo)
	auditService := service.NewAuditService(auditRepo)
	productService := service.NewProductService(productRepo, variantRepo, auditRepo, txManager)
	supplierService := service.NewSupplierService(supplierRepo)
	customerService := service.NewCustomerService(customerRepo)
	purchaseService := service.NewPurchaseService(purchaseRepo, productRepo, supplierRepo, auditRepo, stockLedger, txManager, wsHub)
	saleService := service.NewSaleService(saleRepo, productRepo, customerRepo, debtRepo, auditRepo, stockLedger, txManager, wsHub)
	returnService := service.NewReturnService(returnRepo, saleRepo, productRepo, customerRepo, auditRepo, stockLedger, txManager, wsHub)
	debtService := service.NewDebtService(debtRepo, saleRepo, auditRepo, txManager)
	stockService := service.NewStockService(productRepo, mutationRepo, auditRepo, stockLedger, txManager, wsHub)

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	auditHandler := handler.NewAuditHandler(auditService)
	productHandler := handler.NewProductHandler(productService)
	partnerHandler := handler.NewPartnerHandler(supplierService, customerService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)
	saleHandler := handler.NewSaleHandler(saleService)
	returnHandler := handler.NewReturnHandler(returnService)
	debtHandler := handler.NewDebtHandler(debtService)
	stockHandler := handler.NewStockHandler(stockService)

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

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	api := router.Group("")
	userHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	productHandler.RegisterRoutes(api)
	partnerHandler.RegisterRoutes(api)
	purchaseHandler.RegisterRoutes(api)
	saleHandler.RegisterRoutes(api)
	returnHandler.RegisterRoutes(api)
	debtHandler.RegisterRoutes(api)
	stockHandler.RegisterRoutes(api)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
