package main

import (
	"log"
	"os"

	"procureflow/internal/database"
	"procureflow/internal/handler"
	"procureflow/internal/reconcile"
	"procureflow/internal/repository"
	"procureflow/internal/service"
	"procureflow/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           ProcureFlow API
// @version         1.0
// @description     Purchase request approval workflow with purchase order generation and receipt reconciliation.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer logger.Sync()

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "procureflow")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		logger.Fatal("Database connection failed", zap.Error(err))
	}
	logger.Info("Connected to PostgreSQL")

	store, err := storage.NewLocalStore(envOr("STORAGE_DIR", "data/documents"))
	if err != nil {
		logger.Fatal("Document store init failed", zap.Error(err))
	}

	policy, err := service.ParseApprovalPolicy(os.Getenv("APPROVAL_LEVELS"))
	if err != nil {
		logger.Fatal("Invalid APPROVAL_LEVELS", zap.Error(err))
	}

	tolerance, err := decimal.NewFromString(envOr("RECEIPT_AMOUNT_TOLERANCE", "0.01"))
	if err != nil {
		logger.Fatal("Invalid RECEIPT_AMOUNT_TOLERANCE", zap.Error(err))
	}

	// Repository -> Service -> Handler
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txm := repository.NewTransactionManager(db)

	poGen := service.NewPOGenerator(db, store)
	userService := service.NewUserService(userRepo, tokenRepo)
	workflowService := service.NewWorkflowService(requestRepo, userRepo, auditRepo, txm, poGen, policy, logger)
	receiptService := service.NewReceiptService(requestRepo, userRepo, auditRepo, txm, store, reconcile.NewTextExtractor(), reconcile.NewEngine(tolerance), logger)
	auditService := service.NewAuditService(auditRepo)

	userHandler := handler.NewUserHandler(userService)
	requestHandler := handler.NewRequestHandler(workflowService, receiptService, auditService, store)
	auditHandler := handler.NewAuditHandler(auditService)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	userHandler.RegisterRoutes(router.Group(""))
	requestHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")
	logger.Info("Server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
