package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentStatus is derived from a membership's total and paid amounts.
type PaymentStatus string

const (
	PaymentFull    PaymentStatus = "full"
	PaymentPartial PaymentStatus = "partial"
	PaymentPending PaymentStatus = "pending"
)

// DerivePaymentStatus is the only place payment status is computed.
func DerivePaymentStatus(total, paid decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return PaymentFull
	case !paid.IsPositive():
		return PaymentPending
	default:
		return PaymentPartial
	}
}

// TransactionType tags a ledger entry. Amounts are always stored positive;
// refunds are distinguished by type, not by sign.
type TransactionType string

const (
	TxInitialPayment    TransactionType = "initial_payment"
	TxAdditionalPayment TransactionType = "additional_payment"
	TxRenewalPayment    TransactionType = "renewal_payment"
	TxRefund            TransactionType = "refund"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TxInitialPayment, TxAdditionalPayment, TxRenewalPayment, TxRefund:
		return true
	}
	return false
}

// Signed returns amount with the sign it contributes to paid-to-date.
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t == TxRefund {
		return amount.Neg()
	}
	return amount
}

// PaymentModes accepted by the ledger.
var PaymentModes = map[string]bool{
	"cash":          true,
	"card":          true,
	"upi":           true,
	"bank_transfer": true,
	"cheque":        true,
	"online":        true,
}

// ValidatePaymentMode returns ErrInvalidArgument for unknown modes.
func ValidatePaymentMode(mode string) error {
	if !PaymentModes[mode] {
		return fmt.Errorf("%w: unknown payment mode %q", ErrInvalidArgument, mode)
	}
	return nil
}
