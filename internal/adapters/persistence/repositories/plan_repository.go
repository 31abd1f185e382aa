package repositories

import (
	"context"

	"gymdesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// planRepository implements PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// GetByID gets a plan of the given company
func (r *planRepository) GetByID(ctx context.Context, companyID, id uint) (*models.MembershipPlan, error) {
	var plan models.MembershipPlan
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListActive lists active plans of the given company
func (r *planRepository) ListActive(ctx context.Context, companyID uint) ([]*models.MembershipPlan, error) {
	var plans []*models.MembershipPlan
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Order("duration_months ASC, id ASC").
		Find(&plans).Error
	return plans, err
}
