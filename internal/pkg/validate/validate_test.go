package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type holdRequest struct {
	Duration int    `json:"duration" validate:"required,gt=0"`
	Unit     string `json:"unit" validate:"required,oneof=days months"`
	Reason   string `json:"reason" validate:"max=5"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(holdRequest{Duration: 3, Unit: "days"}))

	err := Struct(holdRequest{Unit: "weeks", Reason: "too long"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "duration is required")
		assert.Contains(t, err.Error(), "unit must be one of [days months]")
		assert.Contains(t, err.Error(), "reason must be at most 5")
	}
}
