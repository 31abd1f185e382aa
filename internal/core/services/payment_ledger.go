package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymdesk/internal/adapters/persistence/models"
	"gymdesk/internal/adapters/persistence/repositories"
	"gymdesk/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentLedger owns the payment summary and the append-only ledger.
// The summary is only ever written together with a ledger entry.
type PaymentLedger struct {
	store *repositories.Store
	audit AuditSink
	cache MembershipCache
	now   Clock
}

// NewPaymentLedger creates a new payment ledger
func NewPaymentLedger(store *repositories.Store, audit AuditSink, cache MembershipCache, now Clock) *PaymentLedger {
	if audit == nil {
		audit = NopAudit{}
	}
	if cache == nil {
		cache = NopCache{}
	}
	if now == nil {
		now = time.Now
	}
	return &PaymentLedger{store: store, audit: audit, cache: cache, now: now}
}

// RecordPaymentInput represents a payment to append
type RecordPaymentInput struct {
	Amount decimal.Decimal
	Mode   string
	Type   domain.TransactionType
	Note   string
}

// PaymentResult is returned after a ledger write
type PaymentResult struct {
	MembershipID  uint                       `json:"membership_id"`
	PaymentStatus string                     `json:"payment_status"`
	PaidAmount    decimal.Decimal            `json:"paid_amount"`
	TotalAmount   decimal.Decimal            `json:"total_amount"`
	Transaction   *models.PaymentTransaction `json:"transaction"`
}

// RevenueSummary aggregates a company's ledger over a date range
type RevenueSummary struct {
	From    time.Time                  `json:"from"`
	To      time.Time                  `json:"to"`
	Gross   decimal.Decimal            `json:"gross"`
	Refunds decimal.Decimal            `json:"refunds"`
	Net     decimal.Decimal            `json:"net"`
	ByType  map[string]decimal.Decimal `json:"by_type"`
	Entries int64                      `json:"entries"`
}

// RecordPayment appends a payment to a membership's ledger and recomputes
// its summary in the same transaction
func (l *PaymentLedger) RecordPayment(ctx context.Context, caller domain.Caller, membershipID uint, input RecordPaymentInput) (*PaymentResult, error) {
	if input.Type == "" {
		input.Type = domain.TxAdditionalPayment
	}
	if input.Type != domain.TxAdditionalPayment && input.Type != domain.TxRefund {
		return nil, fmt.Errorf("%w: transaction type %q cannot be recorded directly", domain.ErrInvalidArgument, input.Type)
	}

	var result *PaymentResult
	err := l.store.Transaction(ctx, func(tx *repositories.Store) error {
		membership, err := tx.Memberships.GetForUpdate(ctx, membershipID, &caller.CompanyID)
		if err != nil {
			return membershipNotFound(err, membershipID)
		}
		summary, err := l.summaryOf(ctx, tx, membershipID)
		if err != nil {
			return err
		}
		entry, err := l.append(ctx, tx, membership, summary, input, caller.UserID)
		if err != nil {
			return err
		}
		result = &PaymentResult{
			MembershipID:  membershipID,
			PaymentStatus: summary.PaymentStatus,
			PaidAmount:    summary.PaidAmount,
			TotalAmount:   summary.TotalAmount,
			Transaction:   entry,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.cache.Invalidate(ctx, caller.CompanyID, membershipID)
	l.audit.Record(domain.AuditEntry{
		CompanyID:  caller.CompanyID,
		UserID:     caller.UserID,
		Action:     domain.AuditPaymentRecorded,
		EntityType: domain.EntityPayment,
		EntityID:   result.Transaction.ID,
		Details: map[string]interface{}{
			"membership_id":  membershipID,
			"type":           result.Transaction.Type,
			"amount":         result.Transaction.Amount.StringFixed(2),
			"payment_status": result.PaymentStatus,
		},
	})

	return result, nil
}

// Open creates the summary of a new membership and records the initial
// payment when there is one. Runs inside the caller's transaction.
func (l *PaymentLedger) Open(ctx context.Context, tx *repositories.Store, membership *models.Membership, total decimal.Decimal, initial RecordPaymentInput, createdBy uint) (*models.Payment, error) {
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: total amount must not be negative", domain.ErrInvalidArgument)
	}
	summary := &models.Payment{
		MembershipID:  membership.ID,
		TotalAmount:   total,
		PaidAmount:    decimal.Zero,
		PaymentStatus: string(domain.DerivePaymentStatus(total, decimal.Zero)),
	}
	if err := tx.Payments.CreateSummary(ctx, summary); err != nil {
		return nil, err
	}

	if initial.Amount.IsZero() {
		return summary, nil
	}
	initial.Type = domain.TxInitialPayment
	if _, err := l.append(ctx, tx, membership, summary, initial, createdBy); err != nil {
		return nil, err
	}
	return summary, nil
}

// Charge raises the amount owed and records the payment that goes with it
// (renewals). Runs inside the caller's transaction.
func (l *PaymentLedger) Charge(ctx context.Context, tx *repositories.Store, membership *models.Membership, extra decimal.Decimal, payment RecordPaymentInput, createdBy uint) (*models.Payment, *models.PaymentTransaction, error) {
	if extra.IsNegative() {
		return nil, nil, fmt.Errorf("%w: charge must not be negative", domain.ErrInvalidArgument)
	}
	summary, err := l.summaryOf(ctx, tx, membership.ID)
	if err != nil {
		return nil, nil, err
	}
	summary.TotalAmount = summary.TotalAmount.Add(extra)
	payment.Type = domain.TxRenewalPayment
	entry, err := l.append(ctx, tx, membership, summary, payment, createdBy)
	if err != nil {
		return nil, nil, err
	}
	return summary, entry, nil
}

// append validates an entry, applies it to the summary and writes both
func (l *PaymentLedger) append(ctx context.Context, tx *repositories.Store, membership *models.Membership, summary *models.Payment, input RecordPaymentInput, createdBy uint) (*models.PaymentTransaction, error) {
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", domain.ErrInvalidArgument, input.Type)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than 0", domain.ErrInvalidArgument)
	}
	if err := domain.ValidatePaymentMode(input.Mode); err != nil {
		return nil, err
	}

	paid := summary.PaidAmount.Add(input.Type.Signed(input.Amount))
	if paid.IsNegative() {
		return nil, fmt.Errorf("%w: refund of %s exceeds paid amount %s",
			domain.ErrInvalidArgument, input.Amount.StringFixed(2), summary.PaidAmount.StringFixed(2))
	}
	summary.PaidAmount = paid
	summary.PaymentStatus = string(domain.DerivePaymentStatus(summary.TotalAmount, summary.PaidAmount))
	if err := tx.Payments.UpdateSummary(ctx, summary); err != nil {
		return nil, err
	}

	now := l.now()
	entry := &models.PaymentTransaction{
		MemberID:        membership.MemberID,
		MembershipID:    membership.ID,
		Type:            string(input.Type),
		Amount:          input.Amount,
		PaymentMode:     input.Mode,
		TransactionDate: now,
		ReceiptNumber:   newReceiptNumber(now),
		Note:            input.Note,
		CreatedBy:       createdBy,
	}
	if err := tx.Payments.AppendTransaction(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (l *PaymentLedger) summaryOf(ctx context.Context, tx *repositories.Store, membershipID uint) (*models.Payment, error) {
	summary, err := tx.Payments.GetSummary(ctx, membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment summary of membership %d", domain.ErrNotFound, membershipID)
		}
		return nil, err
	}
	return summary, nil
}

// Timeline lists a membership's ledger in transaction order
func (l *PaymentLedger) Timeline(ctx context.Context, caller domain.Caller, membershipID uint) ([]*models.PaymentTransaction, error) {
	ok, err := l.store.Memberships.BelongsTo(ctx, caller.CompanyID, membershipID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: membership %d", domain.ErrNotFound, membershipID)
	}
	return l.store.Payments.ListTransactions(ctx, membershipID)
}

// Revenue aggregates the caller's ledger in [from, to). Refunds are
// subtracted from gross by type.
func (l *PaymentLedger) Revenue(ctx context.Context, caller domain.Caller, from, to time.Time) (*RevenueSummary, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: from must be before to", domain.ErrInvalidArgument)
	}
	totals, err := l.store.Payments.SumByType(ctx, caller.CompanyID, from, to)
	if err != nil {
		return nil, err
	}

	summary := &RevenueSummary{
		From:    from,
		To:      to,
		Gross:   decimal.Zero,
		Refunds: decimal.Zero,
		ByType:  make(map[string]decimal.Decimal, len(totals)),
	}
	for _, t := range totals {
		summary.ByType[t.Type] = t.Total
		summary.Entries += t.Count
		if domain.TransactionType(t.Type) == domain.TxRefund {
			summary.Refunds = summary.Refunds.Add(t.Total)
		} else {
			summary.Gross = summary.Gross.Add(t.Total)
		}
	}
	summary.Net = summary.Gross.Sub(summary.Refunds)
	return summary, nil
}

// newReceiptNumber returns e.g. RCT-20250301-1A2B3C4D5E6F
func newReceiptNumber(at time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("RCT-%s-%s", at.Format("20060102"), id[:12])
}
