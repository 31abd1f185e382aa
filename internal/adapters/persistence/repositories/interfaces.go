package repositories

import (
	"context"

	"gymdesk/internal/adapters/persistence/models"
)

// MemberRepository defines member repository interface
// Read-only access to the portal's members table
type MemberRepository interface {
	GetByID(ctx context.Context, companyID, id uint) (*models.Member, error)
	Exists(ctx context.Context, companyID, id uint) (bool, error)
}

// PlanRepository defines plan catalog repository interface
// Read-only: plans are maintained by the portal
type PlanRepository interface {
	GetByID(ctx context.Context, companyID, id uint) (*models.MembershipPlan, error)
	ListActive(ctx context.Context, companyID uint) ([]*models.MembershipPlan, error)
}
