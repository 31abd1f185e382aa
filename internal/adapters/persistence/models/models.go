package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Reference tables (owned by the portal, read by the core)
// ============================================================

// Member represents a gym member. Tenant is resolved through CompanyID.
type Member struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CompanyID uint           `gorm:"not null;index" json:"company_id"`
	FullName  string         `gorm:"size:150;not null" json:"full_name"`
	Email     string         `gorm:"size:100" json:"email"`
	Phone     string         `gorm:"size:20" json:"phone"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Member) TableName() string {
	return "members"
}

// MembershipPlan is per-tenant catalog data
type MembershipPlan struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	CompanyID      uint            `gorm:"not null;index" json:"company_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	DurationMonths int             `gorm:"not null" json:"duration_months"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	IsActive       bool            `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MembershipPlan) TableName() string {
	return "membership_plans"
}

// ============================================================
// Membership lifecycle
// ============================================================

// Membership is the subscription row. Status and dates are written only by
// the membership service.
type Membership struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	MemberID        uint       `gorm:"not null;index" json:"member_id"`
	PlanID          uint       `gorm:"not null;index" json:"plan_id"`
	StartDate       time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate         time.Time  `gorm:"type:date;not null" json:"end_date"`
	OriginalEndDate *time.Time `gorm:"type:date" json:"original_end_date"`
	Status          string     `gorm:"size:20;not null;index:idx_membership_status_hold_end" json:"status"`
	IsOnHold        bool       `gorm:"not null;default:false" json:"is_on_hold"`
	HoldStartDate   *time.Time `gorm:"type:date" json:"hold_start_date"`
	HoldEndDate     *time.Time `gorm:"type:date;index:idx_membership_status_hold_end" json:"hold_end_date"`
	HoldReason      string     `gorm:"size:255" json:"hold_reason"`
	CreatedBy       uint       `gorm:"not null" json:"created_by"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Member  *Member          `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Plan    *MembershipPlan  `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Payment *Payment         `gorm:"foreignKey:MembershipID;constraint:OnDelete:CASCADE" json:"payment,omitempty"`
	Holds   []MembershipHold `gorm:"foreignKey:MembershipID;constraint:OnDelete:CASCADE" json:"holds,omitempty"`
}

func (Membership) TableName() string {
	return "memberships"
}

// MembershipResponse DTO
type MembershipResponse struct {
	ID              uint             `json:"id"`
	CompanyID       uint             `json:"company_id"`
	MemberID        uint             `json:"member_id"`
	MemberName      string           `json:"member_name,omitempty"`
	PlanID          uint             `json:"plan_id"`
	PlanName        string           `json:"plan_name,omitempty"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	OriginalEndDate *time.Time       `json:"original_end_date"`
	Status          string           `json:"status"`
	IsOnHold        bool             `json:"is_on_hold"`
	HoldStartDate   *time.Time       `json:"hold_start_date"`
	HoldEndDate     *time.Time       `json:"hold_end_date"`
	HoldReason      string           `json:"hold_reason,omitempty"`
	Payment         *PaymentResponse `json:"payment,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (m *Membership) ToResponse() *MembershipResponse {
	resp := &MembershipResponse{
		ID:              m.ID,
		MemberID:        m.MemberID,
		PlanID:          m.PlanID,
		StartDate:       m.StartDate,
		EndDate:         m.EndDate,
		OriginalEndDate: m.OriginalEndDate,
		Status:          m.Status,
		IsOnHold:        m.IsOnHold,
		HoldStartDate:   m.HoldStartDate,
		HoldEndDate:     m.HoldEndDate,
		HoldReason:      m.HoldReason,
		UpdatedAt:       m.UpdatedAt,
	}

	if m.Member != nil {
		resp.CompanyID = m.Member.CompanyID
		resp.MemberName = m.Member.FullName
	}
	if m.Plan != nil {
		resp.PlanName = m.Plan.Name
	}
	if m.Payment != nil {
		resp.Payment = m.Payment.ToResponse()
	}

	return resp
}

// MembershipHold is one hold interval. Open while ResumedAt is nil; closed
// rows are history and never change again.
type MembershipHold struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	MembershipID  uint       `gorm:"not null;index" json:"membership_id"`
	HoldStartDate time.Time  `gorm:"type:date;not null" json:"hold_start_date"`
	HoldEndDate   time.Time  `gorm:"type:date;not null" json:"hold_end_date"`
	HoldReason    string     `gorm:"size:255" json:"hold_reason"`
	DaysOnHold    int        `gorm:"not null;default:0" json:"days_on_hold"`
	ResumedAt     *time.Time `json:"resumed_at"`
	CreatedBy     uint       `gorm:"not null" json:"created_by"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (MembershipHold) TableName() string {
	return "membership_holds"
}

// IsOpen reports whether the hold has not been closed yet
func (h *MembershipHold) IsOpen() bool {
	return h.ResumedAt == nil
}

// ============================================================
// Payment ledger
// ============================================================

// Payment is the ledger summary, one row per membership
type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	MembershipID  uint            `gorm:"not null;uniqueIndex" json:"membership_id"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"paid_amount"`
	PaymentStatus string          `gorm:"size:20;not null" json:"payment_status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// PaymentResponse DTO
type PaymentResponse struct {
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	PaymentStatus string          `json:"payment_status"`
}

func (p *Payment) ToResponse() *PaymentResponse {
	balance := p.TotalAmount.Sub(p.PaidAmount)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	return &PaymentResponse{
		TotalAmount:   p.TotalAmount,
		PaidAmount:    p.PaidAmount,
		BalanceDue:    balance,
		PaymentStatus: p.PaymentStatus,
	}
}

// PaymentTransaction is an append-only ledger entry
type PaymentTransaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	MemberID        uint            `gorm:"not null;index" json:"member_id"`
	MembershipID    uint            `gorm:"not null;index" json:"membership_id"`
	Type            string          `gorm:"size:30;not null" json:"type"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMode     string          `gorm:"size:30;not null" json:"payment_mode"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	ReceiptNumber   string          `gorm:"size:40;uniqueIndex;not null" json:"receipt_number"`
	Note            string          `gorm:"type:text" json:"note,omitempty"`
	CreatedBy       uint            `gorm:"not null" json:"created_by"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`

	Membership *Membership `gorm:"foreignKey:MembershipID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// ============================================================
// Audit
// ============================================================

// AuditLog stores entries written by the audit sink
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CompanyID  uint           `gorm:"index" json:"company_id"`
	UserID     uint           `json:"user_id"`
	Action     string         `gorm:"size:50;not null;index" json:"action"`
	EntityType string         `gorm:"size:50;not null" json:"entity_type"`
	EntityID   uint           `gorm:"index" json:"entity_id"`
	Details    datatypes.JSON `json:"details"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Member{},
		&MembershipPlan{},
		&Membership{},
		&MembershipHold{},
		&Payment{},
		&PaymentTransaction{},
		&AuditLog{},
	)
}
