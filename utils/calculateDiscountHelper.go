package utils

import "github.com/shopspring/decimal"

// Order-level discount types accepted on a checkout. Anything else passes
// the subtotal through untouched (unrecognized but non-fatal).
const (
	OrderDiscountNone    = "none"
	OrderDiscountAmount  = "amount"
	OrderDiscountPercent = "percent"
)

var decimalOneHundred = decimal.NewFromInt(100)

// CalculateLineTotal computes the stored total of one order line.
// Percent discount applies per unit; price discount applies once per line.
// The result is clamped at zero and rounded to 2 places.
func CalculateLineTotal(unitRate decimal.Decimal, qty int, percentDiscount *decimal.Decimal, priceDiscount *decimal.Decimal) decimal.Decimal {
	effectiveRate := unitRate
	if percentDiscount != nil {
		effectiveRate = effectiveRate.Sub(unitRate.Mul(*percentDiscount).Div(decimalOneHundred))
	}
	effectiveRate = ClampNonNegative(effectiveRate)

	lineTotal := effectiveRate.Mul(decimal.NewFromInt(int64(qty)))
	if priceDiscount != nil {
		lineTotal = lineTotal.Sub(*priceDiscount)
	}

	return Round2(ClampNonNegative(lineTotal))
}

// ApplyOrderDiscount nets an optional order-level discount out of the gross
// subtotal and returns the order total. Percent values are clamped to
// [0, 100]; an amount discount never pushes the total below zero.
func ApplyOrderDiscount(subtotal decimal.Decimal, discountType string, discountValue decimal.Decimal) decimal.Decimal {
	switch discountType {
	case OrderDiscountAmount:
		return Round2(ClampNonNegative(subtotal.Sub(discountValue)))
	case OrderDiscountPercent:
		percent := discountValue
		if percent.IsNegative() {
			percent = decimal.Zero
		}
		if percent.GreaterThan(decimalOneHundred) {
			percent = decimalOneHundred
		}
		return Round2(subtotal.Sub(subtotal.Mul(percent).Div(decimalOneHundred)))
	case OrderDiscountNone, "":
		return Round2(subtotal)
	default:
		return Round2(subtotal)
	}
}

// CalculateChange returns payment minus total, rounded. The caller must have
// rejected payment < total before asking for change.
func CalculateChange(paymentAmount decimal.Decimal, totalAmount decimal.Decimal) decimal.Decimal {
	return Round2(paymentAmount.Sub(totalAmount))
}
