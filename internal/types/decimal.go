package types

import "github.com/shopspring/decimal"

// AmountScale is the number of decimal places invoice amounts are persisted and shown with
const AmountScale int32 = 2

// RoundAmount scales a monetary amount to AmountScale places, rounding half away from zero
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}
