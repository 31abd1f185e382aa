package services

import (
	"context"
	"log"
	"time"

	"gymdesk/internal/adapters/persistence/repositories"
	"gymdesk/internal/core/domain"
)

// ReconcileResult counts what one sweep changed
type ReconcileResult struct {
	Resumed int `json:"resumed_count"`
	Expired int `json:"expired_count"`
	Failed  int `json:"failed_count"`
}

// MembershipReconciler resumes memberships whose hold period is over and
// expires memberships past their end date. It goes through the same
// MembershipService transitions as interactive requests.
type MembershipReconciler struct {
	store       *repositories.Store
	memberships *MembershipService
	cache       MembershipCache
	now         Clock
}

// NewMembershipReconciler creates a new reconciler
func NewMembershipReconciler(store *repositories.Store, memberships *MembershipService, cache MembershipCache, now Clock) *MembershipReconciler {
	if cache == nil {
		cache = NopCache{}
	}
	if now == nil {
		now = time.Now
	}
	return &MembershipReconciler{
		store:       store,
		memberships: memberships,
		cache:       cache,
		now:         now,
	}
}

// RunOnce performs one sweep. Each membership is handled in its own
// transaction; a failure is logged and counted and the sweep moves on.
// The returned error is only set when the candidate query itself fails.
func (r *MembershipReconciler) RunOnce(ctx context.Context) (*ReconcileResult, error) {
	result := &ReconcileResult{}
	today := domain.DateOf(r.now())

	due, err := r.store.Memberships.ListDueHoldIDs(ctx, today)
	if err != nil {
		log.Printf("❌ Auto-resume query error: %v", err)
		return result, err
	}
	for _, id := range due {
		resumed, err := r.memberships.AutoResume(ctx, id)
		if err != nil {
			result.Failed++
			log.Printf("❌ Auto-resume membership %d error: %v", id, err)
			continue
		}
		if resumed {
			result.Resumed++
		}
	}

	lapsed, err := r.store.Memberships.ListLapsedIDs(ctx, today)
	if err != nil {
		log.Printf("❌ Expiry query error: %v", err)
		r.signal(ctx, result)
		return result, err
	}
	for _, id := range lapsed {
		expired, err := r.memberships.Expire(ctx, id)
		if err != nil {
			result.Failed++
			log.Printf("❌ Expire membership %d error: %v", id, err)
			continue
		}
		if expired {
			result.Expired++
		}
	}

	r.signal(ctx, result)
	return result, nil
}

// signal tells downstream caches that membership data changed
func (r *MembershipReconciler) signal(ctx context.Context, result *ReconcileResult) {
	if result.Resumed == 0 && result.Expired == 0 {
		return
	}
	r.cache.InvalidateAll(ctx)
	log.Printf("🔄 Reconciled memberships: %d resumed, %d expired, %d failed",
		result.Resumed, result.Expired, result.Failed)
}
