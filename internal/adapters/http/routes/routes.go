package routes

import (
	"time"

	"gymdesk/internal/adapters/http/handlers"
	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Permissions checked per route
const (
	PermPlansView            = "plans.view"
	PermMembershipsView      = "memberships.view"
	PermMembershipsManage    = "memberships.manage"
	PermMembershipsHold      = "memberships.hold"
	PermMembershipsReconcile = "memberships.reconcile"
	PermPaymentsView         = "payments.view"
	PermPaymentsRecord       = "payments.record"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, svc *Services) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisClient, cfg.AppMode)
	planHandler := handlers.NewPlanHandler(svc.Plans)
	membershipHandler := handlers.NewMembershipHandler(svc.Memberships, svc.Holds, svc.Reconciler)
	paymentHandler := handlers.NewPaymentHandler(svc.Ledger)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	auth := middleware.AuthMiddleware(cfg.JWT.Secret)

	planRoutes := apiV1.Group("/plans", auth)
	setupPlanRoutes(planRoutes, planHandler)

	membershipRoutes := apiV1.Group("/memberships", auth, middleware.NoCacheHeaders())
	setupMembershipRoutes(membershipRoutes, membershipHandler, paymentHandler)

	paymentRoutes := apiV1.Group("/payments", auth, middleware.NoCacheHeaders())
	setupPaymentRoutes(paymentRoutes, paymentHandler)
}

// setupPlanRoutes configures plan catalog routes
func setupPlanRoutes(router fiber.Router, handler *handlers.PlanHandler) {
	router.Use(middleware.PrivateCacheHeaders(5 * time.Minute))
	router.Get("/", middleware.RequirePermission(PermPlansView), handler.List)
	router.Get("/:id", middleware.RequirePermission(PermPlansView), handler.Get)
}

// setupMembershipRoutes configures membership lifecycle and ledger routes
func setupMembershipRoutes(router fiber.Router, handler *handlers.MembershipHandler, payments *handlers.PaymentHandler) {
	// Reconciliation trigger for external schedulers
	router.Post("/auto-resume", middleware.RequirePermission(PermMembershipsReconcile), handler.AutoResume)

	router.Post("/", middleware.RequirePermission(PermMembershipsManage), handler.Create)
	router.Get("/", middleware.RequirePermission(PermMembershipsView), handler.List)
	router.Get("/:id", middleware.RequirePermission(PermMembershipsView), handler.Get)
	router.Delete("/:id", middleware.RequirePermission(PermMembershipsManage), handler.Delete)

	// Hold / resume
	router.Post("/:id/hold", middleware.RequirePermission(PermMembershipsHold), handler.PlaceHold)
	router.Post("/:id/resume", middleware.RequirePermission(PermMembershipsHold), handler.Resume)
	router.Get("/:id/holds", middleware.RequirePermission(PermMembershipsView), handler.Holds)

	router.Post("/:id/cancel", middleware.RequirePermission(PermMembershipsManage), handler.Cancel)
	router.Post("/:id/renew", middleware.RequirePermission(PermMembershipsManage), handler.Renew)

	// Payment ledger
	router.Post("/:id/payments", middleware.RequirePermission(PermPaymentsRecord), payments.Record)
	router.Get("/:id/payments", middleware.RequirePermission(PermPaymentsView), payments.Timeline)
}

// setupPaymentRoutes configures company-wide payment routes
func setupPaymentRoutes(router fiber.Router, handler *handlers.PaymentHandler) {
	router.Get("/revenue", middleware.RequirePermission(PermPaymentsView), handler.Revenue)
}
