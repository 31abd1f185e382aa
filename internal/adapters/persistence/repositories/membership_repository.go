package repositories

import (
	"context"
	"errors"
	"time"

	"gymdesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoRowsUpdated is returned when a guarded update matched no row
var ErrNoRowsUpdated = errors.New("no rows updated")

// MembershipRepository handles membership data access
type MembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Create creates a new membership
func (r *MembershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

// scoped restricts a membership query to one company when companyID is set
func (r *MembershipRepository) scoped(ctx context.Context, companyID *uint) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Membership{})
	if companyID != nil {
		q = q.Joins("JOIN members ON members.id = memberships.member_id AND members.company_id = ?", *companyID)
	}
	return q
}

// GetForUpdate loads a membership and locks its row for the rest of the
// transaction. A nil companyID skips the tenant filter (system callers).
func (r *MembershipRepository) GetForUpdate(ctx context.Context, id uint, companyID *uint) (*models.Membership, error) {
	var membership models.Membership
	q := r.scoped(ctx, companyID).Select("memberships.*").Where("memberships.id = ?", id)
	if supportsRowLocks(r.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Take(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

// BelongsTo checks that a membership exists in the given company
func (r *MembershipRepository) BelongsTo(ctx context.Context, companyID, id uint) (bool, error) {
	var count int64
	err := r.scoped(ctx, &companyID).
		Where("memberships.id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// CompanyID resolves the tenant of a membership through its member
func (r *MembershipRepository) CompanyID(ctx context.Context, id uint) (uint, error) {
	var companyIDs []uint
	err := r.db.WithContext(ctx).
		Table("memberships").
		Joins("JOIN members ON members.id = memberships.member_id").
		Where("memberships.id = ?", id).
		Pluck("members.company_id", &companyIDs).Error
	if err != nil {
		return 0, err
	}
	if len(companyIDs) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return companyIDs[0], nil
}

// GetDetail gets a membership of the given company with relations
func (r *MembershipRepository) GetDetail(ctx context.Context, companyID, id uint) (*models.Membership, error) {
	var membership models.Membership
	err := r.scoped(ctx, &companyID).
		Select("memberships.*").
		Preload("Member").
		Preload("Plan").
		Preload("Payment").
		Where("memberships.id = ?", id).
		Take(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// List lists memberships of a company with pagination, optionally by status
func (r *MembershipRepository) List(ctx context.Context, companyID uint, status string, offset, limit int) ([]*models.Membership, int64, error) {
	var memberships []*models.Membership
	var total int64

	count := r.scoped(ctx, &companyID)
	if status != "" {
		count = count.Where("memberships.status = ?", status)
	}
	if err := count.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.scoped(ctx, &companyID).
		Select("memberships.*").
		Preload("Member").
		Preload("Plan").
		Preload("Payment")
	if status != "" {
		q = q.Where("memberships.status = ?", status)
	}
	err := q.Order("memberships.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&memberships).Error

	return memberships, total, err
}

// Transition applies updates only if the row is still in status from.
// Returns ErrNoRowsUpdated when another writer changed the status first.
func (r *MembershipRepository) Transition(ctx context.Context, id uint, from string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return ErrNoRowsUpdated
	}
	return nil
}

// ListDueHoldIDs returns on-hold memberships whose hold ended on or before today
func (r *MembershipRepository) ListDueHoldIDs(ctx context.Context, today time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("status = ? AND hold_end_date <= ?", "on_hold", today).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// ListLapsedIDs returns active memberships whose end date is before today
func (r *MembershipRepository) ListLapsedIDs(ctx context.Context, today time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("status = ? AND end_date < ?", "active", today).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// Delete removes a membership together with its holds, ledger and summary
func (r *MembershipRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("membership_id = ?", id).Delete(&models.MembershipHold{}).Error; err != nil {
		return err
	}
	if err := db.Where("membership_id = ?", id).Delete(&models.PaymentTransaction{}).Error; err != nil {
		return err
	}
	if err := db.Where("membership_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Membership{}, id).Error
}
