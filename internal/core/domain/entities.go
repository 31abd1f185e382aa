package domain

import "time"

// Caller identifies who invokes a core operation. Authentication and
// permission checks happen before a Caller reaches the core; the core only
// uses it for tenant isolation and to stamp created_by columns.
type Caller struct {
	UserID    uint
	CompanyID uint
}

// SystemUserID is stamped on rows written by background jobs.
const SystemUserID uint = 0

// AuditEntry is consumed by the fire-and-forget audit sink.
type AuditEntry struct {
	CompanyID  uint
	UserID     uint
	Action     string
	EntityType string
	EntityID   uint
	Details    map[string]interface{}
}

// Audit actions
const (
	AuditMembershipCreated     = "membership.created"
	AuditMembershipHeld        = "membership.hold"
	AuditMembershipResumed     = "membership.resumed"
	AuditMembershipAutoResumed = "membership.auto_resumed"
	AuditMembershipCancelled   = "membership.cancelled"
	AuditMembershipExpired     = "membership.expired"
	AuditMembershipRenewed     = "membership.renewed"
	AuditMembershipDeleted     = "membership.deleted"
	AuditPaymentRecorded       = "payment.recorded"

	EntityMembership = "membership"
	EntityPayment    = "payment"
)

// DateOf truncates t to its calendar date (in t's own location) and
// returns midnight UTC of that date. All membership dates are stored this way.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from -> to. Negative when to
// is before from.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// AddDays returns the date n days after d.
func AddDays(d time.Time, n int) time.Time {
	return DateOf(d).AddDate(0, 0, n)
}
