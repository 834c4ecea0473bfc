package quote

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ApplyDiscount returns round2(unitPrice * (1 - percent/100)). Percentages
// outside [0, 100] are rejected as bad sheet data instead of producing a
// negative or inflated price.
func ApplyDiscount(unitPrice, percent decimal.Decimal) (decimal.Decimal, error) {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return decimal.Zero, DataIntegrity("apply discount", fmt.Errorf("%w: %s", ErrDiscountOutOfRange, percent))
	}
	factor := decimal.NewFromInt(1).Sub(percent.Div(hundred))
	return Round2(unitPrice.Mul(factor)), nil
}

// Total returns round2(finalUnitPrice * qty).
func Total(finalUnitPrice decimal.Decimal, qty int) decimal.Decimal {
	return Round2(finalUnitPrice.Mul(decimal.NewFromInt(int64(qty))))
}
