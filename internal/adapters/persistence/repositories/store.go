package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that take part in a membership unit of work.
// A Store obtained from Transaction is bound to one database transaction;
// every repository on it reads and writes through that transaction.
type Store struct {
	db          *gorm.DB
	Members     MemberRepository
	Plans       PlanRepository
	Memberships *MembershipRepository
	Holds       *HoldRepository
	Payments    *PaymentRepository
	Audit       *AuditLogRepository
}

// NewStore creates a store over db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Members:     NewMemberRepository(db),
		Plans:       NewPlanRepository(db),
		Memberships: NewMembershipRepository(db),
		Holds:       NewHoldRepository(db),
		Payments:    NewPaymentRepository(db),
		Audit:       NewAuditLogRepository(db),
	}
}

// DB returns the underlying handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn inside a single database transaction. The transaction
// commits when fn returns nil and rolls back on error or panic.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// supportsRowLocks reports whether the dialect understands SELECT ... FOR UPDATE
func supportsRowLocks(db *gorm.DB) bool {
	switch db.Dialector.Name() {
	case "mysql", "postgres":
		return true
	}
	return false
}
