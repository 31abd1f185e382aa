package repositories

import (
	"context"
	"time"

	"gymdesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// HoldRepository handles membership_holds data access
type HoldRepository struct {
	db *gorm.DB
}

// NewHoldRepository creates a new hold repository
func NewHoldRepository(db *gorm.DB) *HoldRepository {
	return &HoldRepository{db: db}
}

// Create inserts an open hold
func (r *HoldRepository) Create(ctx context.Context, hold *models.MembershipHold) error {
	return r.db.WithContext(ctx).Create(hold).Error
}

// GetOpen returns the open hold of a membership, or nil if there is none
func (r *HoldRepository) GetOpen(ctx context.Context, membershipID uint) (*models.MembershipHold, error) {
	var holds []models.MembershipHold
	err := r.db.WithContext(ctx).
		Where("membership_id = ? AND resumed_at IS NULL", membershipID).
		Order("id DESC").
		Limit(1).
		Find(&holds).Error
	if err != nil {
		return nil, err
	}
	if len(holds) == 0 {
		return nil, nil
	}
	return &holds[0], nil
}

// CountOpen counts open holds of a membership
func (r *HoldRepository) CountOpen(ctx context.Context, membershipID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MembershipHold{}).
		Where("membership_id = ? AND resumed_at IS NULL", membershipID).
		Count(&count).Error
	return count, err
}

// Close finalizes an open hold. Closed holds are never touched again.
func (r *HoldRepository) Close(ctx context.Context, id uint, daysOnHold int, resumedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.MembershipHold{}).
		Where("id = ? AND resumed_at IS NULL", id).
		Updates(map[string]interface{}{
			"days_on_hold": daysOnHold,
			"resumed_at":   resumedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return ErrNoRowsUpdated
	}
	return nil
}

// ListByMembership lists all holds of a membership, oldest first
func (r *HoldRepository) ListByMembership(ctx context.Context, membershipID uint) ([]*models.MembershipHold, error) {
	var holds []*models.MembershipHold
	err := r.db.WithContext(ctx).
		Where("membership_id = ?", membershipID).
		Order("hold_start_date ASC, id ASC").
		Find(&holds).Error
	return holds, err
}
