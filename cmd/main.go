package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"startup-fund/internal/auth"
	"startup-fund/internal/broadcast"
	"startup-fund/internal/config"
	"startup-fund/internal/database"
	"startup-fund/internal/handlers"
	"startup-fund/internal/repository"
	"startup-fund/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Initialize repository
	ledger := repository.NewLedger(db)

	// WebSocket hub: every state change is projected and pushed to all
	// connected clients through here.
	hub := broadcast.NewHub()

	// Initialize services
	stateService := services.NewGameStateService(db, hub)
	investmentService := services.NewInvestmentService(
		db,
		ledger,
		stateService,
		cfg.App.InvestmentIncrement,
		cfg.App.SubmitRequireFull,
	)
	joinService := services.NewJoinService(ledger, cfg.App.StartingCredit)
	fundsService := services.NewFundsService(ledger)
	adminService := services.NewAdminService(db, ledger, stateService)

	// Initialize handlers
	joinHandler := handlers.NewJoinHandler(joinService, cfg.App.AccessCode)
	gameHandler := handlers.NewGameHandler(investmentService, stateService, hub)
	fundsHandler := handlers.NewFundsHandler(fundsService)
	adminHandler := handlers.NewAdminHandler(adminService, stateService)

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"time":    time.Now().Format(time.RFC3339),
			"clients": hub.ClientCount(),
		})
	})

	// Public routes
	router.POST("/api/join", joinHandler.Join)
	router.GET("/api/state", gameHandler.GetState)
	router.GET("/api/ws", gameHandler.ServeWS)

	// Investor routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.GET("/me", gameHandler.Me)
		api.POST("/investments", gameHandler.Invest)
		api.POST("/submit", gameHandler.Submit)

		api.POST("/funds-requests", fundsHandler.SubmitRequest)
		api.GET("/funds-requests", fundsHandler.GetRequests)
	}

	// Admin routes (basic auth)
	admin := router.Group("/api/admin")
	admin.Use(auth.AdminMiddleware(cfg.Admin.Username, cfg.Admin.Password))
	{
		admin.GET("/dashboard", adminHandler.GetDashboard)
		admin.POST("/lock", adminHandler.ToggleLock)
		admin.GET("/logs", adminHandler.GetAdminLogs)

		// Startup management
		admin.POST("/startups", adminHandler.CreateStartup)
		admin.PUT("/startups/:id", adminHandler.UpdateStartup)
		admin.DELETE("/startups/:id", adminHandler.DeleteStartup)

		// Investor management
		admin.GET("/investors", adminHandler.GetInvestors)
		admin.PUT("/investors/:id/credit", adminHandler.UpdateInvestorCredit)
		admin.DELETE("/investors/:id", adminHandler.DeleteInvestor)

		// Funds request review
		admin.GET("/funds-requests", adminHandler.GetFundsRequests)
		admin.POST("/funds-requests/:id/approve", adminHandler.ApproveFundsRequest)
		admin.POST("/funds-requests/:id/reject", adminHandler.RejectFundsRequest)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	hub.Close()

	log.Println("Server exited")
}
