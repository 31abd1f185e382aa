package handlers

import (
	"time"

	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/adapters/persistence/models"
	"gymdesk/internal/core/domain"
	"gymdesk/internal/core/services"
	"gymdesk/internal/pkg/pagination"
	"gymdesk/internal/pkg/response"
	"gymdesk/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// MembershipHandler handles membership lifecycle endpoints
type MembershipHandler struct {
	membershipService *services.MembershipService
	holdTracker       *services.HoldTracker
	reconciler        *services.MembershipReconciler
}

// NewMembershipHandler creates a new membership handler
func NewMembershipHandler(
	membershipService *services.MembershipService,
	holdTracker *services.HoldTracker,
	reconciler *services.MembershipReconciler,
) *MembershipHandler {
	return &MembershipHandler{
		membershipService: membershipService,
		holdTracker:       holdTracker,
		reconciler:        reconciler,
	}
}

// CreateMembershipRequest represents create membership request
type CreateMembershipRequest struct {
	MemberID       uint            `json:"member_id" validate:"required"`
	PlanID         uint            `json:"plan_id" validate:"required"`
	StartDate      string          `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	InitialPayment decimal.Decimal `json:"initial_payment" swaggertype:"number"`
	PaymentMode    string          `json:"payment_mode,omitempty"`
	Note           string          `json:"note,omitempty" validate:"max=500"`
}

// PlaceHoldRequest represents place hold request
type PlaceHoldRequest struct {
	Reason   string `json:"reason" validate:"max=255"`
	Duration int    `json:"duration" validate:"required,gt=0"`
	Unit     string `json:"unit" validate:"required,oneof=days months"`
}

// CancelRequest represents cancel membership request
type CancelRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// RenewRequest represents renew membership request. plan_id defaults to
// the current plan.
type RenewRequest struct {
	PlanID      uint            `json:"plan_id,omitempty"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number"`
	PaymentMode string          `json:"payment_mode" validate:"required"`
	Note        string          `json:"note,omitempty" validate:"max=500"`
}

// Create creates a membership
// @Summary Create membership
// @Description Create an active membership from a plan and open its payment ledger
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateMembershipRequest true "Membership data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /memberships [post]
func (h *MembershipHandler) Create(c *fiber.Ctx) error {
	var req CreateMembershipRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	input := services.CreateMembershipInput{
		MemberID:       req.MemberID,
		PlanID:         req.PlanID,
		InitialPayment: req.InitialPayment,
		PaymentMode:    req.PaymentMode,
		Note:           req.Note,
	}
	if req.StartDate != "" {
		start, err := parseDate(req.StartDate)
		if err != nil {
			return response.BadRequest(c, "start_date must be YYYY-MM-DD")
		}
		input.StartDate = &start
	}

	membership, err := h.membershipService.Create(c.Context(), middleware.Caller(c), input)
	if err != nil {
		return fail(c, err, "Failed to create membership")
	}

	return response.Created(c, "Membership created successfully", fiber.Map{
		"membership": membership,
	})
}

// List lists memberships
// @Summary List memberships
// @Description List memberships of the caller's company
// @Tags Memberships
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param status query string false "Filter by status" Enums(active, on_hold, expired, cancelled)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /memberships [get]
func (h *MembershipHandler) List(c *fiber.Ctx) error {
	params := pagination.FromQuery(c)

	memberships, total, err := h.membershipService.List(
		c.Context(), middleware.Caller(c), c.Query("status"), params.Offset(), params.Limit,
	)
	if err != nil {
		return fail(c, err, "Failed to list memberships")
	}

	return response.Success(c, "Memberships retrieved successfully",
		pagination.NewPage[*models.MembershipResponse](memberships, params, total))
}

// Get gets a membership
// @Summary Get membership
// @Description Get a membership with its payment summary
// @Tags Memberships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Membership ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /memberships/{id} [get]
func (h *MembershipHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid membership ID")
	}

	membership, err := h.membershipService.Get(c.Context(), middleware.Caller(c), id)
	if err != nil {
		return fail(c, err, "Failed to get membership")
	}

	return response.Success(c, "Membership retrieved successfully", fiber.Map{
		"membership": membership,
	})
}

// PlaceHold places a membership on hold
// @Summary Place hold
// @Description Pause an active membership starting today
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Membership ID"
// @Param body body PlaceHoldRequest true "Hold data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /memberships/{id}/hold [post]
func (h *MembershipHandler) PlaceHold(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid membership ID")
	}

	var req PlaceHoldRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	result, err := h.membershipService.PlaceHold(c.Context(), middleware.Caller(c), id, services.PlaceHoldInput{
		Reason:   req.Reason,
		Duration: req.Duration,
		Unit:     domain.HoldUnit(req.Unit),
	})
	if err != nil {
		return fail(c, err, "Failed to place hold")
	}

	return response.Success(c, "Membership placed on hold", result)
}

// Resume resumes a membership on hold
// @Summary Resume membership
// @Description End the hold and extend the end date by the days spent on hold
// @Tags Memberships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Membership ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /memberships/{id}/resume [post]
func (h *MembershipHandler) Resume(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid membership ID")
	}

	result, err := h.membershipService.Resume(c.Context(), middleware.Caller(c), id)
	if err != nil {
		return fail(c, err, "Failed to resume membership")
	}

	return response.Success(c, "Membership resumed", result)
}

// Holds lists the hold history of a membership
// @Summary Hold history
// @Description List the holds of a membership, oldest first
// @Tags Memberships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Membership ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /memberships/{id}/holds [get]
func (h *MembershipHandler) Holds(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid membership ID")
	}

	holds, err := h.holdTracker.History(c.Context(), middleware.Caller(c), id)
	if err != nil {
		return fail(c, err, "Failed to get hold history")
	}

	return response.Success(c, "Hold history retrieved successfully", fiber.Map{
		"holds": holds,
	})
}

// Cancel cancels a membership
// @Summary Cancel membership
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Membership ID"
// @Param body body CancelRequest false "Cancel reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /memberships/{id}/cancel [post]
func (h *MembershipHandler) Cancel(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid membership ID")
	}

	var req CancelRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}
	if err := validate.Struct(req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	membership, err := h.membershipService.Cancel(c.Context(), middleware.Caller(c), id, req.Reason)
	if err != nil {
		return fail(c, err, "Failed to cancel membership")
	}

	return response.Success(c, "Membership cancelled", fiber.Map{
		"membership": membership,
	})
}

// Renew renews a membership
// @Summary Renew membership
// @Description Extend an active or expired membership by one plan period and record the payment
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Membership ID"
// @Param body body RenewRequest true "Renewal data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /memberships/{id}/renew [post]
func (h *MembershipHandler) Renew(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid membership ID")
	}

	var req RenewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	membership, err := h.membershipService.Renew(c.Context(), middleware.Caller(c), id, services.RenewInput{
		PlanID: req.PlanID,
		Amount: req.Amount,
		Mode:   req.PaymentMode,
		Note:   req.Note,
	})
	if err != nil {
		return fail(c, err, "Failed to renew membership")
	}

	return response.Success(c, "Membership renewed", fiber.Map{
		"membership": membership,
	})
}

// Delete deletes a membership
// @Summary Delete membership
// @Description Delete a membership together with its holds and payment ledger
// @Tags Memberships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Membership ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /memberships/{id} [delete]
func (h *MembershipHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid membership ID")
	}

	if err := h.membershipService.Delete(c.Context(), middleware.Caller(c), id); err != nil {
		return fail(c, err, "Failed to delete membership")
	}

	return response.Success(c, "Membership deleted successfully", nil)
}

// AutoResume runs one reconciliation sweep
// @Summary Run auto-resume
// @Description Resume memberships whose hold has ended and expire lapsed ones (for external schedulers)
// @Tags Memberships
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /memberships/auto-resume [post]
func (h *MembershipHandler) AutoResume(c *fiber.Ctx) error {
	started := time.Now()
	result, err := h.reconciler.RunOnce(c.Context())
	if err != nil {
		return fail(c, err, "Failed to run auto-resume")
	}

	return response.Success(c, "Auto-resume completed", fiber.Map{
		"result":      result,
		"duration_ms": time.Since(started).Milliseconds(),
	})
}
