package services

import (
	"context"
	"errors"
	"fmt"

	"gymdesk/internal/adapters/persistence/models"
	"gymdesk/internal/adapters/persistence/repositories"
	"gymdesk/internal/core/domain"

	"gorm.io/gorm"
)

// PlanService exposes the read-only plan catalog
type PlanService struct {
	planRepo repositories.PlanRepository
}

// NewPlanService creates a new plan service
func NewPlanService(planRepo repositories.PlanRepository) *PlanService {
	return &PlanService{planRepo: planRepo}
}

// List lists active plans of the caller's company
func (s *PlanService) List(ctx context.Context, caller domain.Caller) ([]*models.MembershipPlan, error) {
	return s.planRepo.ListActive(ctx, caller.CompanyID)
}

// Get gets a plan of the caller's company
func (s *PlanService) Get(ctx context.Context, caller domain.Caller, id uint) (*models.MembershipPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, caller.CompanyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: plan %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return plan, nil
}
