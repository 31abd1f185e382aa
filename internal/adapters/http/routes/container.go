package routes

import (
	"time"

	"gymdesk/internal/adapters/cache"
	"gymdesk/internal/adapters/persistence/repositories"
	"gymdesk/internal/core/services"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const membershipCacheTTL = 5 * time.Minute

// Services holds the application services shared by the HTTP routes and
// the background scheduler
type Services struct {
	Store       *repositories.Store
	Plans       *services.PlanService
	Holds       *services.HoldTracker
	Ledger      *services.PaymentLedger
	Memberships *services.MembershipService
	Reconciler  *services.MembershipReconciler
	Audit       *services.AuditService
	Cache       services.MembershipCache
}

// NewServices wires repositories and services. redisClient may be nil, in
// which case membership views are not cached. The audit writer is created
// stopped; the caller starts and stops it.
func NewServices(db *gorm.DB, redisClient *redis.Client, now services.Clock) *Services {
	store := repositories.NewStore(db)

	var membershipCache services.MembershipCache = services.NopCache{}
	if redisClient != nil {
		membershipCache = cache.NewMembershipCache(redisClient, membershipCacheTTL)
	}

	audit := services.NewAuditService(store.Audit, 1024)
	holds := services.NewHoldTracker(store)
	ledger := services.NewPaymentLedger(store, audit, membershipCache, now)
	memberships := services.NewMembershipService(store, holds, ledger, audit, membershipCache, now)

	return &Services{
		Store:       store,
		Plans:       services.NewPlanService(store.Plans),
		Holds:       holds,
		Ledger:      ledger,
		Memberships: memberships,
		Reconciler:  services.NewMembershipReconciler(store, memberships, membershipCache, now),
		Audit:       audit,
		Cache:       membershipCache,
	}
}
