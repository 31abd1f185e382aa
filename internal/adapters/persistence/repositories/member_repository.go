package repositories

import (
	"context"

	"gymdesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// memberRepository implements MemberRepository interface
// This is READ-ONLY access to the members table
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// GetByID gets a member of the given company
func (r *memberRepository) GetByID(ctx context.Context, companyID, id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Exists checks if a member exists in the given company
func (r *memberRepository) Exists(ctx context.Context, companyID, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ? AND company_id = ?", id, companyID).
		Count(&count).Error
	return count > 0, err
}
