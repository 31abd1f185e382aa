package repositories

import (
	"context"
	"time"

	"gymdesk/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentRepository handles the payment summary and ledger tables
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreateSummary creates the summary row of a membership
func (r *PaymentRepository) CreateSummary(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetSummary gets the summary row of a membership
func (r *PaymentRepository) GetSummary(ctx context.Context, membershipID uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("membership_id = ?", membershipID).
		Take(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateSummary writes the amounts and status of a summary row
func (r *PaymentRepository) UpdateSummary(ctx context.Context, payment *models.Payment) error {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"total_amount":   payment.TotalAmount,
			"paid_amount":    payment.PaidAmount,
			"payment_status": payment.PaymentStatus,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return ErrNoRowsUpdated
	}
	return nil
}

// AppendTransaction inserts a ledger entry
func (r *PaymentRepository) AppendTransaction(ctx context.Context, tx *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// ListTransactions lists ledger entries of a membership in ledger order
func (r *PaymentRepository) ListTransactions(ctx context.Context, membershipID uint) ([]*models.PaymentTransaction, error) {
	var txs []*models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("membership_id = ?", membershipID).
		Order("transaction_date ASC, id ASC").
		Find(&txs).Error
	return txs, err
}

// TypeTotal is the aggregate of one transaction type
type TypeTotal struct {
	Type  string
	Total decimal.Decimal
	Count int64
}

// SumByType aggregates a company's ledger in [from, to) by transaction type
func (r *PaymentRepository) SumByType(ctx context.Context, companyID uint, from, to time.Time) ([]TypeTotal, error) {
	var totals []TypeTotal
	err := r.db.WithContext(ctx).
		Table("payment_transactions").
		Select("payment_transactions.type AS type, COALESCE(SUM(payment_transactions.amount), 0) AS total, COUNT(*) AS count").
		Joins("JOIN members ON members.id = payment_transactions.member_id").
		Where("members.company_id = ?", companyID).
		Where("payment_transactions.transaction_date >= ? AND payment_transactions.transaction_date < ?", from, to).
		Group("payment_transactions.type").
		Order("payment_transactions.type").
		Scan(&totals).Error
	return totals, err
}
