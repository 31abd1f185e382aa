package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"gymdesk/internal/adapters/cache"
	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/adapters/http/routes"
	"gymdesk/internal/adapters/persistence/models"
	"gymdesk/internal/config"
	"gymdesk/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// @title Gymdesk Membership API
// @version 1.0
// @description Membership lifecycle, holds and payment ledger of the gym portal

// @contact.name API Support
// @contact.email support@gymdesk.app

// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase(db)

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Demo catalog for local development only
	if cfg.IsDev() {
		if err := config.SeedMasterData(db); err != nil {
			log.Printf("⚠️ Warning: Failed to seed master data: %v", err)
		}
	}

	// Redis is optional: cache and shared rate limiting are skipped without it
	redisClient := cache.Connect(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	svc := routes.NewServices(db, redisClient, cfg.Now)

	svc.Audit.Start()
	defer svc.Audit.Stop()

	// Auto-resume / expiry sweep
	if cfg.Scheduler.Enabled {
		cronService := services.NewCronService(svc.Reconciler, cfg.Scheduler.AutoResumeSpec, cfg.Location)
		if err := cronService.Start(); err != nil {
			log.Fatalf("❌ Failed to start scheduler: %v", err)
		}
		defer cronService.Stop()
	} else {
		log.Println("⚠️ Scheduler disabled, use POST /api/v1/memberships/auto-resume")
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Gymdesk Membership API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg, cache.LimiterStorage(cfg.Redis, redisClient))

	// Setup routes
	routes.Setup(app, db, redisClient, cfg, svc)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
