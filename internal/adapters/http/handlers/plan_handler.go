package handlers

import (
	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/core/services"
	"gymdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PlanHandler handles plan catalog endpoints
type PlanHandler struct {
	planService *services.PlanService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planService *services.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// List lists plans
// @Summary List plans
// @Description List active membership plans of the caller's company
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /plans [get]
func (h *PlanHandler) List(c *fiber.Ctx) error {
	plans, err := h.planService.List(c.Context(), middleware.Caller(c))
	if err != nil {
		return fail(c, err, "Failed to list plans")
	}

	return response.Success(c, "Plans retrieved successfully", fiber.Map{
		"plans": plans,
	})
}

// Get gets a plan
// @Summary Get plan
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /plans/{id} [get]
func (h *PlanHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid plan ID")
	}

	plan, err := h.planService.Get(c.Context(), middleware.Caller(c), id)
	if err != nil {
		return fail(c, err, "Failed to get plan")
	}

	return response.Success(c, "Plan retrieved successfully", fiber.Map{
		"plan": plan,
	})
}
