// Package money holds the pricing arithmetic for sales: per-line GST and
// totals with fixed rounding rules. All values are decimals, never floats.
// Each line rounds independently to 2 decimal places (half-up) so sale
// totals are sums of already-rounded values and never accumulate drift.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeDiscount      = errors.New("discount must not be negative")
	ErrDiscountExceedsTotal  = errors.New("discount exceeds pre-discount total")
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrNegativeUnitPrice     = errors.New("unit price must not be negative")
	ErrInvalidGSTRate        = errors.New("gst rate must be between 0 and 100")
)

var oneHundred = decimal.NewFromInt(100)

type LinePricing struct {
	Subtotal  decimal.Decimal
	GSTAmount decimal.Decimal
	Total     decimal.Decimal
}

type SalePricing struct {
	Subtotal  decimal.Decimal
	GSTAmount decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
}

// PriceLine computes subtotal, GST and total for a single sale line.
// GST is rounded half-up to 2 decimal places. decimal.Round rounds half
// away from zero, which is half-up for the non-negative amounts allowed
// here.
func PriceLine(unitPrice decimal.Decimal, quantity int, gstRate decimal.Decimal) (LinePricing, error) {
	if quantity < 1 {
		return LinePricing{}, ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return LinePricing{}, ErrNegativeUnitPrice
	}
	if gstRate.IsNegative() || gstRate.GreaterThan(oneHundred) {
		return LinePricing{}, ErrInvalidGSTRate
	}

	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	gst := subtotal.Mul(gstRate).Div(oneHundred).Round(2)

	return LinePricing{
		Subtotal:  subtotal,
		GSTAmount: gst,
		Total:     subtotal.Add(gst),
	}, nil
}

// PriceSale folds already-priced lines into sale-level totals and applies
// the discount, a flat currency amount subtracted after tax. A discount
// larger than subtotal+tax is rejected rather than clamped.
func PriceSale(lines []LinePricing, discount decimal.Decimal) (SalePricing, error) {
	if discount.IsNegative() {
		return SalePricing{}, ErrNegativeDiscount
	}

	subtotal := decimal.Zero
	gst := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal)
		gst = gst.Add(line.GSTAmount)
	}

	preDiscount := subtotal.Add(gst)
	if discount.GreaterThan(preDiscount) {
		return SalePricing{}, ErrDiscountExceedsTotal
	}

	return SalePricing{
		Subtotal:  subtotal,
		GSTAmount: gst,
		Discount:  discount,
		Total:     preDiscount.Sub(discount),
	}, nil
}

// LoyaltyPoints is the loyalty delta earned by a completed sale:
// one point per whole 100 of the total amount.
func LoyaltyPoints(total decimal.Decimal) int64 {
	if total.IsNegative() {
		return 0
	}
	return total.Div(oneHundred).Floor().IntPart()
}
