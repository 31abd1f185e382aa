package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymdesk/internal/adapters/persistence/models"
	"gymdesk/internal/adapters/persistence/repositories"
	"gymdesk/internal/core/domain"
)

// HoldTracker keeps the hold history of memberships. Its write methods take
// the transaction-bound store of the membership operation that calls them.
type HoldTracker struct {
	store *repositories.Store
}

// NewHoldTracker creates a new hold tracker
func NewHoldTracker(store *repositories.Store) *HoldTracker {
	return &HoldTracker{store: store}
}

// OpenHoldFor returns the open hold of a membership, or nil
func (t *HoldTracker) OpenHoldFor(ctx context.Context, tx *repositories.Store, membershipID uint) (*models.MembershipHold, error) {
	return tx.Holds.GetOpen(ctx, membershipID)
}

// Open records the start of a hold. At most one open hold may exist.
func (t *HoldTracker) Open(ctx context.Context, tx *repositories.Store, hold *models.MembershipHold) error {
	open, err := tx.Holds.CountOpen(ctx, hold.MembershipID)
	if err != nil {
		return err
	}
	if open > 0 {
		return fmt.Errorf("%w: membership %d already has an open hold", domain.ErrConflict, hold.MembershipID)
	}
	hold.ResumedAt = nil
	hold.DaysOnHold = 0
	return tx.Holds.Create(ctx, hold)
}

// Close finalizes an open hold with the elapsed days
func (t *HoldTracker) Close(ctx context.Context, tx *repositories.Store, hold *models.MembershipHold, daysOnHold int, resumedAt time.Time) error {
	if err := tx.Holds.Close(ctx, hold.ID, daysOnHold, resumedAt); err != nil {
		if errors.Is(err, repositories.ErrNoRowsUpdated) {
			return fmt.Errorf("%w: hold %d is already closed", domain.ErrConflict, hold.ID)
		}
		return err
	}
	hold.DaysOnHold = daysOnHold
	hold.ResumedAt = &resumedAt
	return nil
}

// History lists the holds of a membership in the caller's company
func (t *HoldTracker) History(ctx context.Context, caller domain.Caller, membershipID uint) ([]*models.MembershipHold, error) {
	ok, err := t.store.Memberships.BelongsTo(ctx, caller.CompanyID, membershipID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: membership %d", domain.ErrNotFound, membershipID)
	}
	return t.store.Holds.ListByMembership(ctx, membershipID)
}
