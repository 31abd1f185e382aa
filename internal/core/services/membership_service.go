package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gymdesk/internal/adapters/persistence/models"
	"gymdesk/internal/adapters/persistence/repositories"
	"gymdesk/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MembershipService is the single writer of membership status and dates.
// Every transition runs in one transaction that locks the membership row and
// writes the status with a guarded update, so concurrent callers cannot both
// apply the same transition.
type MembershipService struct {
	store  *repositories.Store
	holds  *HoldTracker
	ledger *PaymentLedger
	audit  AuditSink
	cache  MembershipCache
	now    Clock
}

// NewMembershipService creates a new membership service
func NewMembershipService(
	store *repositories.Store,
	holds *HoldTracker,
	ledger *PaymentLedger,
	audit AuditSink,
	cache MembershipCache,
	now Clock,
) *MembershipService {
	if audit == nil {
		audit = NopAudit{}
	}
	if cache == nil {
		cache = NopCache{}
	}
	if now == nil {
		now = time.Now
	}
	return &MembershipService{
		store:  store,
		holds:  holds,
		ledger: ledger,
		audit:  audit,
		cache:  cache,
		now:    now,
	}
}

func (s *MembershipService) today() time.Time {
	return domain.DateOf(s.now())
}

func membershipNotFound(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: membership %d", domain.ErrNotFound, id)
	}
	return err
}

// lostRace maps a failed guarded update to InvalidState
func lostRace(err error, id uint, from domain.MembershipStatus) error {
	if errors.Is(err, repositories.ErrNoRowsUpdated) {
		return fmt.Errorf("%w: membership %d is no longer %s", domain.ErrInvalidState, id, from)
	}
	return err
}

// ============================================================
// Create
// ============================================================

// CreateMembershipInput represents create membership input
type CreateMembershipInput struct {
	MemberID       uint
	PlanID         uint
	StartDate      *time.Time
	InitialPayment decimal.Decimal
	PaymentMode    string
	Note           string
}

// Create creates an active membership and opens its ledger. Price and
// duration are copied from the plan at this point.
func (s *MembershipService) Create(ctx context.Context, caller domain.Caller, input CreateMembershipInput) (*models.MembershipResponse, error) {
	if input.InitialPayment.IsNegative() {
		return nil, fmt.Errorf("%w: initial payment must not be negative", domain.ErrInvalidArgument)
	}

	var membership *models.Membership
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Members.GetByID(ctx, caller.CompanyID, input.MemberID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: member %d", domain.ErrNotFound, input.MemberID)
			}
			return err
		}
		plan, err := tx.Plans.GetByID(ctx, caller.CompanyID, input.PlanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: plan %d", domain.ErrNotFound, input.PlanID)
			}
			return err
		}
		if !plan.IsActive {
			return fmt.Errorf("%w: plan %d is not active", domain.ErrInvalidArgument, plan.ID)
		}
		if plan.DurationMonths <= 0 {
			return fmt.Errorf("%w: plan %d has no duration", domain.ErrInvalidArgument, plan.ID)
		}

		start := s.today()
		if input.StartDate != nil {
			start = domain.DateOf(*input.StartDate)
		}

		membership = &models.Membership{
			MemberID:  input.MemberID,
			PlanID:    plan.ID,
			StartDate: start,
			EndDate:   start.AddDate(0, plan.DurationMonths, 0),
			Status:    string(domain.StatusActive),
			CreatedBy: caller.UserID,
		}
		if err := tx.Memberships.Create(ctx, membership); err != nil {
			return err
		}

		initial := RecordPaymentInput{Amount: input.InitialPayment, Mode: input.PaymentMode, Note: input.Note}
		_, err = s.ledger.Open(ctx, tx, membership, plan.Price, initial, caller.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuditEntry{
		CompanyID:  caller.CompanyID,
		UserID:     caller.UserID,
		Action:     domain.AuditMembershipCreated,
		EntityType: domain.EntityMembership,
		EntityID:   membership.ID,
		Details: map[string]interface{}{
			"member_id":       membership.MemberID,
			"plan_id":         membership.PlanID,
			"end_date":        membership.EndDate.Format("2006-01-02"),
			"initial_payment": input.InitialPayment.StringFixed(2),
		},
	})

	return s.Get(ctx, caller, membership.ID)
}

// ============================================================
// Read
// ============================================================

// Get gets a membership of the caller's company, served from cache when possible
func (s *MembershipService) Get(ctx context.Context, caller domain.Caller, id uint) (*models.MembershipResponse, error) {
	if cached, ok := s.cache.Get(ctx, caller.CompanyID, id); ok {
		return cached, nil
	}

	// taken before the read so a write committed meanwhile keeps this view out
	version, cacheable := s.cache.Version(ctx, caller.CompanyID, id)

	membership, err := s.store.Memberships.GetDetail(ctx, caller.CompanyID, id)
	if err != nil {
		return nil, membershipNotFound(err, id)
	}

	resp := membership.ToResponse()
	if cacheable {
		s.cache.Set(ctx, caller.CompanyID, resp, version)
	}
	return resp, nil
}

// List lists memberships of the caller's company
func (s *MembershipService) List(ctx context.Context, caller domain.Caller, status string, offset, limit int) ([]*models.MembershipResponse, int64, error) {
	if status != "" && !domain.MembershipStatus(status).IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, status)
	}

	memberships, total, err := s.store.Memberships.List(ctx, caller.CompanyID, status, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*models.MembershipResponse, len(memberships))
	for i, m := range memberships {
		out[i] = m.ToResponse()
	}
	return out, total, nil
}

// ============================================================
// Hold / Resume
// ============================================================

// PlaceHoldInput represents place hold input
type PlaceHoldInput struct {
	Reason   string
	Duration int
	Unit     domain.HoldUnit
}

// HoldResult is returned by PlaceHold
type HoldResult struct {
	MembershipID  uint      `json:"membership_id"`
	Status        string    `json:"status"`
	HoldStartDate time.Time `json:"hold_start_date"`
	HoldEndDate   time.Time `json:"hold_end_date"`
	HoldDays      int       `json:"hold_days"`
}

// PlaceHold pauses an active membership starting today
func (s *MembershipService) PlaceHold(ctx context.Context, caller domain.Caller, id uint, input PlaceHoldInput) (*HoldResult, error) {
	holdDays, err := domain.HoldDays(input.Duration, input.Unit)
	if err != nil {
		return nil, err
	}

	var result *HoldResult
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		membership, err := tx.Memberships.GetForUpdate(ctx, id, &caller.CompanyID)
		if err != nil {
			return membershipNotFound(err, id)
		}

		open, err := s.holds.OpenHoldFor(ctx, tx, id)
		if err != nil {
			return err
		}
		if open != nil || domain.MembershipStatus(membership.Status) == domain.StatusOnHold {
			return fmt.Errorf("%w: membership %d is already on hold", domain.ErrConflict, id)
		}
		if !domain.CanTransition(domain.MembershipStatus(membership.Status), domain.StatusOnHold) {
			return fmt.Errorf("%w: membership %d is %s", domain.ErrInvalidState, id, membership.Status)
		}

		today := s.today()
		holdEnd := domain.AddDays(today, holdDays)
		updates := map[string]interface{}{
			"status":          string(domain.StatusOnHold),
			"is_on_hold":      true,
			"hold_start_date": today,
			"hold_end_date":   holdEnd,
			"hold_reason":     input.Reason,
		}
		if membership.OriginalEndDate == nil {
			updates["original_end_date"] = membership.EndDate
		}
		if err := tx.Memberships.Transition(ctx, id, membership.Status, updates); err != nil {
			return lostRace(err, id, domain.MembershipStatus(membership.Status))
		}

		hold := &models.MembershipHold{
			MembershipID:  id,
			HoldStartDate: today,
			HoldEndDate:   holdEnd,
			HoldReason:    input.Reason,
			CreatedBy:     caller.UserID,
		}
		if err := s.holds.Open(ctx, tx, hold); err != nil {
			return err
		}

		result = &HoldResult{
			MembershipID:  id,
			Status:        string(domain.StatusOnHold),
			HoldStartDate: today,
			HoldEndDate:   holdEnd,
			HoldDays:      holdDays,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, caller.CompanyID, id)
	s.audit.Record(domain.AuditEntry{
		CompanyID:  caller.CompanyID,
		UserID:     caller.UserID,
		Action:     domain.AuditMembershipHeld,
		EntityType: domain.EntityMembership,
		EntityID:   id,
		Details: map[string]interface{}{
			"reason":        input.Reason,
			"duration":      input.Duration,
			"unit":          string(input.Unit),
			"hold_end_date": result.HoldEndDate.Format("2006-01-02"),
		},
	})

	return result, nil
}

// ResumeResult is returned by Resume
type ResumeResult struct {
	MembershipID uint      `json:"membership_id"`
	Status       string    `json:"status"`
	DaysExtended int       `json:"days_extended"`
	EndDate      time.Time `json:"end_date"`
	companyID    uint
}

// Resume ends the hold of a membership in the caller's company. A membership
// that is not on hold yields ErrInvalidState.
func (s *MembershipService) Resume(ctx context.Context, caller domain.Caller, id uint) (*ResumeResult, error) {
	result, err := s.resume(ctx, id, &caller.CompanyID, caller.UserID)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, caller.CompanyID, id)
	s.audit.Record(domain.AuditEntry{
		CompanyID:  caller.CompanyID,
		UserID:     caller.UserID,
		Action:     domain.AuditMembershipResumed,
		EntityType: domain.EntityMembership,
		EntityID:   id,
		Details: map[string]interface{}{
			"days_extended": result.DaysExtended,
			"end_date":      result.EndDate.Format("2006-01-02"),
		},
	})
	return result, nil
}

// AutoResume is the system variant of Resume used by the reconciler. It
// reports false without error when the membership is no longer on hold or
// its hold end date is still ahead.
func (s *MembershipService) AutoResume(ctx context.Context, id uint) (bool, error) {
	result, err := s.resume(ctx, id, nil, domain.SystemUserID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			return false, nil
		}
		return false, err
	}

	s.cache.Invalidate(ctx, result.companyID, id)
	s.audit.Record(domain.AuditEntry{
		CompanyID:  result.companyID,
		UserID:     domain.SystemUserID,
		Action:     domain.AuditMembershipAutoResumed,
		EntityType: domain.EntityMembership,
		EntityID:   id,
		Details: map[string]interface{}{
			"days_extended": result.DaysExtended,
			"end_date":      result.EndDate.Format("2006-01-02"),
		},
	})
	return true, nil
}

// resume closes the open hold and pushes the end date forward by the days
// actually spent on hold, counted from hold start to today
func (s *MembershipService) resume(ctx context.Context, id uint, companyID *uint, userID uint) (*ResumeResult, error) {
	var result *ResumeResult
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		membership, err := tx.Memberships.GetForUpdate(ctx, id, companyID)
		if err != nil {
			return membershipNotFound(err, id)
		}
		if domain.MembershipStatus(membership.Status) != domain.StatusOnHold {
			return fmt.Errorf("%w: membership %d is not on hold", domain.ErrInvalidState, id)
		}
		today := s.today()
		// system callers only end holds that are due; the sweep's list may be stale
		if companyID == nil && !holdDue(membership, today) {
			return fmt.Errorf("%w: hold of membership %d is not due", domain.ErrInvalidState, id)
		}

		open, err := s.holds.OpenHoldFor(ctx, tx, id)
		if err != nil {
			return err
		}

		var holdStart time.Time
		switch {
		case membership.HoldStartDate != nil:
			holdStart = *membership.HoldStartDate
		case open != nil:
			holdStart = open.HoldStartDate
		default:
			return fmt.Errorf("membership %d is on hold without a hold start date", id)
		}

		holdDays := domain.DaysBetween(holdStart, today)
		if holdDays < 0 {
			holdDays = 0
		}
		endDate := domain.AddDays(membership.EndDate, holdDays)

		err = tx.Memberships.Transition(ctx, id, string(domain.StatusOnHold), map[string]interface{}{
			"status":        string(domain.StatusActive),
			"is_on_hold":    false,
			"hold_end_date": today,
			"end_date":      endDate,
		})
		if err != nil {
			return lostRace(err, id, domain.StatusOnHold)
		}

		if open != nil {
			if err := s.holds.Close(ctx, tx, open, holdDays, s.now()); err != nil {
				return err
			}
		} else {
			log.Printf("⚠️ Membership %d resumed without an open hold record", id)
		}

		owner, err := tx.Memberships.CompanyID(ctx, id)
		if err != nil {
			return err
		}

		result = &ResumeResult{
			MembershipID: id,
			Status:       string(domain.StatusActive),
			DaysExtended: holdDays,
			EndDate:      endDate,
			companyID:    owner,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func holdDue(membership *models.Membership, today time.Time) bool {
	return membership.HoldEndDate != nil && !domain.DateOf(*membership.HoldEndDate).After(today)
}

// ============================================================
// Cancel / Expire / Renew / Delete
// ============================================================

// Cancel cancels an active membership
func (s *MembershipService) Cancel(ctx context.Context, caller domain.Caller, id uint, reason string) (*models.MembershipResponse, error) {
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		membership, err := tx.Memberships.GetForUpdate(ctx, id, &caller.CompanyID)
		if err != nil {
			return membershipNotFound(err, id)
		}
		if !domain.CanTransition(domain.MembershipStatus(membership.Status), domain.StatusCancelled) {
			return fmt.Errorf("%w: membership %d is %s", domain.ErrInvalidState, id, membership.Status)
		}
		err = tx.Memberships.Transition(ctx, id, membership.Status, map[string]interface{}{
			"status": string(domain.StatusCancelled),
		})
		return lostRace(err, id, domain.MembershipStatus(membership.Status))
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, caller.CompanyID, id)
	s.audit.Record(domain.AuditEntry{
		CompanyID:  caller.CompanyID,
		UserID:     caller.UserID,
		Action:     domain.AuditMembershipCancelled,
		EntityType: domain.EntityMembership,
		EntityID:   id,
		Details:    map[string]interface{}{"reason": reason},
	})
	return s.Get(ctx, caller, id)
}

// Expire marks an active membership whose end date has passed as expired.
// Anything else is a no-op reported as false.
func (s *MembershipService) Expire(ctx context.Context, id uint) (bool, error) {
	var companyID uint
	expired := false
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		membership, err := tx.Memberships.GetForUpdate(ctx, id, nil)
		if err != nil {
			return membershipNotFound(err, id)
		}
		if domain.MembershipStatus(membership.Status) != domain.StatusActive ||
			!membership.EndDate.Before(s.today()) {
			return nil
		}
		err = tx.Memberships.Transition(ctx, id, string(domain.StatusActive), map[string]interface{}{
			"status": string(domain.StatusExpired),
		})
		if errors.Is(err, repositories.ErrNoRowsUpdated) {
			return nil
		}
		if err != nil {
			return err
		}
		if companyID, err = tx.Memberships.CompanyID(ctx, id); err != nil {
			return err
		}
		expired = true
		return nil
	})
	if err != nil || !expired {
		return false, err
	}

	s.cache.Invalidate(ctx, companyID, id)
	s.audit.Record(domain.AuditEntry{
		CompanyID:  companyID,
		UserID:     domain.SystemUserID,
		Action:     domain.AuditMembershipExpired,
		EntityType: domain.EntityMembership,
		EntityID:   id,
	})
	return true, nil
}

// RenewInput represents renew input. PlanID 0 keeps the current plan.
type RenewInput struct {
	PlanID uint
	Amount decimal.Decimal
	Mode   string
	Note   string
}

// Renew extends an active or expired membership by one plan period and
// charges the plan price. Active memberships extend from their end date,
// expired ones from today.
func (s *MembershipService) Renew(ctx context.Context, caller domain.Caller, id uint, input RenewInput) (*models.MembershipResponse, error) {
	var endDate time.Time
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		membership, err := tx.Memberships.GetForUpdate(ctx, id, &caller.CompanyID)
		if err != nil {
			return membershipNotFound(err, id)
		}
		status := domain.MembershipStatus(membership.Status)
		if status != domain.StatusActive && status != domain.StatusExpired {
			return fmt.Errorf("%w: membership %d is %s", domain.ErrInvalidState, id, membership.Status)
		}

		planID := input.PlanID
		if planID == 0 {
			planID = membership.PlanID
		}
		plan, err := tx.Plans.GetByID(ctx, caller.CompanyID, planID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: plan %d", domain.ErrNotFound, planID)
			}
			return err
		}
		if !plan.IsActive || plan.DurationMonths <= 0 {
			return fmt.Errorf("%w: plan %d cannot be renewed into", domain.ErrInvalidArgument, plan.ID)
		}

		base := membership.EndDate
		if today := s.today(); base.Before(today) {
			base = today
		}
		endDate = base.AddDate(0, plan.DurationMonths, 0)

		err = tx.Memberships.Transition(ctx, id, membership.Status, map[string]interface{}{
			"status":   string(domain.StatusActive),
			"plan_id":  plan.ID,
			"end_date": endDate,
		})
		if err != nil {
			return lostRace(err, id, status)
		}

		payment := RecordPaymentInput{Amount: input.Amount, Mode: input.Mode, Note: input.Note}
		_, _, err = s.ledger.Charge(ctx, tx, membership, plan.Price, payment, caller.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, caller.CompanyID, id)
	s.audit.Record(domain.AuditEntry{
		CompanyID:  caller.CompanyID,
		UserID:     caller.UserID,
		Action:     domain.AuditMembershipRenewed,
		EntityType: domain.EntityMembership,
		EntityID:   id,
		Details: map[string]interface{}{
			"end_date": endDate.Format("2006-01-02"),
			"amount":   input.Amount.StringFixed(2),
		},
	})
	return s.Get(ctx, caller, id)
}

// Delete removes a membership with its holds and ledger as one unit
func (s *MembershipService) Delete(ctx context.Context, caller domain.Caller, id uint) error {
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Memberships.GetForUpdate(ctx, id, &caller.CompanyID); err != nil {
			return membershipNotFound(err, id)
		}
		return tx.Memberships.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, caller.CompanyID, id)
	s.audit.Record(domain.AuditEntry{
		CompanyID:  caller.CompanyID,
		UserID:     caller.UserID,
		Action:     domain.AuditMembershipDeleted,
		EntityType: domain.EntityMembership,
		EntityID:   id,
	})
	return nil
}
