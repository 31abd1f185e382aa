package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCanTransition(t *testing.T) {
	allowed := []Transition{
		{StatusActive, StatusOnHold},
		{StatusOnHold, StatusActive},
		{StatusActive, StatusExpired},
		{StatusActive, StatusCancelled},
		{StatusExpired, StatusActive},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr.From, tr.To), "%s -> %s", tr.From, tr.To)
	}

	denied := []Transition{
		{StatusOnHold, StatusOnHold},
		{StatusOnHold, StatusExpired},
		{StatusOnHold, StatusCancelled},
		{StatusCancelled, StatusActive},
		{StatusExpired, StatusOnHold},
		{StatusActive, StatusActive},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr.From, tr.To), "%s -> %s", tr.From, tr.To)
	}
}

func TestMembershipStatusIsValid(t *testing.T) {
	assert.True(t, StatusOnHold.IsValid())
	assert.False(t, MembershipStatus("paused").IsValid())
	assert.False(t, MembershipStatus("").IsValid())
}

func TestHoldDays(t *testing.T) {
	days, err := HoldDays(10, HoldUnitDays)
	require.NoError(t, err)
	assert.Equal(t, 10, days)

	days, err = HoldDays(2, HoldUnitMonths)
	require.NoError(t, err)
	assert.Equal(t, 60, days)

	_, err = HoldDays(0, HoldUnitDays)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = HoldDays(-3, HoldUnitMonths)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = HoldDays(1, HoldUnit("weeks"))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestHoldDaysMonthsAreFlatThirtyDays(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 24).Draw(t, "months")

		months, err := HoldDays(n, HoldUnitMonths)
		require.NoError(t, err)
		days, err := HoldDays(n*DaysPerHoldMonth, HoldUnitDays)
		require.NoError(t, err)

		assert.Equal(t, days, months)
	})
}
