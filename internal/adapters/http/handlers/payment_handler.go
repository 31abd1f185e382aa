package handlers

import (
	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/core/domain"
	"gymdesk/internal/core/services"
	"gymdesk/internal/pkg/response"
	"gymdesk/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment ledger endpoints
type PaymentHandler struct {
	ledger *services.PaymentLedger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(ledger *services.PaymentLedger) *PaymentHandler {
	return &PaymentHandler{ledger: ledger}
}

// RecordPaymentRequest represents record payment request. type defaults to
// additional_payment; refunds are sent as positive amounts.
type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"number"`
	PaymentMode string          `json:"payment_mode" validate:"required"`
	Type        string          `json:"type,omitempty" validate:"omitempty,oneof=additional_payment refund"`
	Note        string          `json:"note,omitempty" validate:"max=500"`
}

// Record records a payment
// @Summary Record payment
// @Description Append a payment or refund to a membership's ledger
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Membership ID"
// @Param body body RecordPaymentRequest true "Payment data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /memberships/{id}/payments [post]
func (h *PaymentHandler) Record(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid membership ID")
	}

	var req RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	result, err := h.ledger.RecordPayment(c.Context(), middleware.Caller(c), id, services.RecordPaymentInput{
		Amount: req.Amount,
		Mode:   req.PaymentMode,
		Type:   domain.TransactionType(req.Type),
		Note:   req.Note,
	})
	if err != nil {
		return fail(c, err, "Failed to record payment")
	}

	return response.Created(c, "Payment recorded successfully", result)
}

// Timeline lists a membership's payments
// @Summary Payment timeline
// @Description List ledger entries of a membership in transaction order
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Membership ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /memberships/{id}/payments [get]
func (h *PaymentHandler) Timeline(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid membership ID")
	}

	entries, err := h.ledger.Timeline(c.Context(), middleware.Caller(c), id)
	if err != nil {
		return fail(c, err, "Failed to get payment timeline")
	}

	return response.Success(c, "Payment timeline retrieved successfully", fiber.Map{
		"transactions": entries,
	})
}

// Revenue summarizes the ledger over a date range
// @Summary Revenue summary
// @Description Gross, refunds and net of the caller's ledger; both dates inclusive
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param from query string true "From date (YYYY-MM-DD)"
// @Param to query string true "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /payments/revenue [get]
func (h *PaymentHandler) Revenue(c *fiber.Ctx) error {
	from, err := parseDate(c.Query("from"))
	if err != nil {
		return response.BadRequest(c, "from must be YYYY-MM-DD")
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		return response.BadRequest(c, "to must be YYYY-MM-DD")
	}

	summary, err := h.ledger.Revenue(c.Context(), middleware.Caller(c), from, domain.AddDays(to, 1))
	if err != nil {
		return fail(c, err, "Failed to summarize revenue")
	}

	return response.Success(c, "Revenue retrieved successfully", summary)
}
