package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jorgenomente/hucha/internal/config"
	"github.com/jorgenomente/hucha/internal/database"
	"github.com/jorgenomente/hucha/internal/handlers"
	"github.com/jorgenomente/hucha/internal/logger"
	"github.com/jorgenomente/hucha/internal/mailer"
	"github.com/jorgenomente/hucha/internal/middleware"
	"github.com/jorgenomente/hucha/internal/services"
	"github.com/jorgenomente/hucha/internal/validator"
)

// @title           Hucha API
// @version         1.0
// @description     Hucha is a shared household budgeting service: monthly income tracking with a recurring template, fixed and variable expenses, and per-persona splits.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Connect to the message broker for outbound mail
	mailClient, err := mailer.NewClient(appConfig.AMQPURL, appConfig.MailExchange, appConfig.MailQueue)
	if err != nil {
		return fmt.Errorf("failed to connect to message broker: %w", err)
	}
	defer mailClient.Close()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db, mailClient, appConfig.MailFromEmail, appConfig.AppBaseURL)
	budgetService := services.NewBudgetService(db)
	inviteService := services.NewInviteService(db, mailClient, appConfig.MailFromEmail, appConfig.AppBaseURL)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	expenseHandler := handlers.NewExpenseHandler(budgetService)
	inviteHandler := handlers.NewInviteHandler(inviteService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/password-reset", authHandler.RequestPasswordReset)
	auth.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Budget routes
	budgetGroup := protected.Group("/budget")
	budgetGroup.GET("", budgetHandler.GetOverview)
	budgetGroup.PATCH("", budgetHandler.Rename)
	budgetGroup.PUT("/period", budgetHandler.SelectPeriod)
	budgetGroup.POST("/reset", budgetHandler.Reset)
	budgetGroup.GET("/summary", budgetHandler.GetSummary)
	budgetGroup.POST("/movements", budgetHandler.AddMovement)

	// Income routes
	incomes := budgetGroup.Group("/incomes")
	incomes.GET("", budgetHandler.ListIncomes)
	incomes.POST("/:id/received", budgetHandler.ToggleReceived)
	incomes.PATCH("/:id", budgetHandler.UpdateIncome)
	incomes.DELETE("/:id", budgetHandler.RemoveIncome)

	// Persona routes
	personas := budgetGroup.Group("/personas")
	personas.GET("", budgetHandler.ListPersonas)
	personas.POST("/rename", budgetHandler.RenamePersona)
	personas.PUT("/theme", budgetHandler.SetPersonaTheme)

	// Fixed expense routes
	expenses := budgetGroup.Group("/expenses")
	expenses.GET("", expenseHandler.ListFixed)
	expenses.PUT("/:id", expenseHandler.UpdateFixed)
	expenses.POST("/:id/paid", expenseHandler.TogglePaid)
	expenses.PUT("/:id/payment-date", expenseHandler.UpdatePaymentDate)
	expenses.DELETE("/:id", expenseHandler.RemoveFixed)

	// Variable expense routes
	variable := budgetGroup.Group("/variable-expenses")
	variable.GET("", expenseHandler.ListVariable)
	variable.POST("", expenseHandler.AddVariable)
	variable.DELETE("/:id", expenseHandler.RemoveVariable)

	// Sharing routes
	invites := protected.Group("/invites")
	invites.POST("", inviteHandler.CreateInvite)
	invites.GET("", inviteHandler.ListInvites)
	invites.DELETE("/:id", inviteHandler.RevokeInvite)
	invites.POST("/accept", inviteHandler.AcceptInvite)
	protected.GET("/members", inviteHandler.ListMembers)

	// Worker callbacks, guarded by API key instead of user auth
	internal := v1.Group("/internal")
	internal.Use(middleware.WorkerAuthMiddleware(appConfig.WorkerAPIKey))
	internal.POST("/invites/:id/sent", inviteHandler.MarkInviteSent)

	log.Infof("Starting Hucha backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
