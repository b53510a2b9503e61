package utils

import "github.com/shopspring/decimal"

// Round2 rounds a monetary amount to 2 decimal places (half rounds up for
// non-negative amounts). Every monetary value returned to a caller or
// persisted must pass through here first.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// ClampNonNegative floors a monetary amount at zero. A line total or order
// total may never go negative because of a discount.
func ClampNonNegative(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
