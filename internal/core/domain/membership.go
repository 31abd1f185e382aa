package domain

import "fmt"

// MembershipStatus is the lifecycle state of a membership.
type MembershipStatus string

const (
	StatusActive    MembershipStatus = "active"
	StatusOnHold    MembershipStatus = "on_hold"
	StatusExpired   MembershipStatus = "expired"
	StatusCancelled MembershipStatus = "cancelled"
)

// IsValid reports whether s is a known status.
func (s MembershipStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusOnHold, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Transition is a directed edge of the membership state machine.
type Transition struct {
	From MembershipStatus
	To   MembershipStatus
}

var validTransitions = map[Transition]bool{
	{StatusActive, StatusOnHold}:    true, // hold
	{StatusOnHold, StatusActive}:    true, // resume / auto-resume
	{StatusActive, StatusExpired}:   true, // end date passed
	{StatusActive, StatusCancelled}: true,
	{StatusExpired, StatusActive}:   true, // renewal
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to MembershipStatus) bool {
	return validTransitions[Transition{from, to}]
}

// HoldUnit is the unit a hold duration is expressed in.
type HoldUnit string

const (
	HoldUnitDays   HoldUnit = "days"
	HoldUnitMonths HoldUnit = "months"
)

// DaysPerHoldMonth is the flat multiplier for month-based holds. Holds do
// not use calendar-month arithmetic.
const DaysPerHoldMonth = 30

// HoldDays converts a requested hold duration to days.
func HoldDays(duration int, unit HoldUnit) (int, error) {
	if duration <= 0 {
		return 0, fmt.Errorf("%w: hold duration must be greater than 0", ErrInvalidArgument)
	}
	switch unit {
	case HoldUnitDays:
		return duration, nil
	case HoldUnitMonths:
		return duration * DaysPerHoldMonth, nil
	default:
		return 0, fmt.Errorf("%w: unknown hold unit %q", ErrInvalidArgument, unit)
	}
}
