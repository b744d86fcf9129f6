package credit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClaimAmount(t *testing.T) {
	tests := []struct {
		name      string
		available string
		upTo      string
		want      string
	}{
		{name: "credit_exceeds_total", available: "10", upTo: "7", want: "7"},
		{name: "total_exceeds_credit", available: "3.5", upTo: "7", want: "3.5"},
		{name: "no_credit", available: "0", upTo: "7", want: "0"},
		{name: "negative_balance", available: "-1", upTo: "7", want: "0"},
		{name: "zero_total", available: "10", upTo: "0", want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Balance{AvailableCredit: decimal.RequireFromString(tt.available)}
			got := b.ClaimAmount(decimal.RequireFromString(tt.upTo))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}

	var missing *Balance
	assert.True(t, missing.ClaimAmount(decimal.NewFromInt(5)).IsZero())
}
