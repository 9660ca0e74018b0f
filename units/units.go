// Package units converts between human-readable decimal token amounts and
// base-unit integers, and formats amounts for display.
package units

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseUnits converts a decimal amount string to base units using the given
// number of decimal places. Precision beyond the token's decimals is truncated.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", amount)
	}
	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// FormatUnits converts a base-unit integer to a decimal amount string.
func FormatUnits(raw *big.Int, decimals int) string {
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}

// FormatDisplay formats a base-unit amount for quote display. Tiered
// precision: very small amounts collapse to "< 0.000001", then 6, 4, and
// finally 3 decimal places as magnitude grows. Display only; callers must
// never feed the result back into transaction amounts.
func FormatDisplay(raw *big.Int, decimals int) string {
	d := decimal.NewFromBigInt(raw, -int32(decimals))

	switch {
	case d.LessThan(decimal.New(1, -6)):
		return "< 0.000001"
	case d.LessThan(decimal.New(1, -2)):
		return d.StringFixed(6)
	case d.LessThan(decimal.New(1, 0)):
		return d.StringFixed(4)
	default:
		return d.StringFixed(3)
	}
}

// FormatBalance formats a base-unit balance for display, using K/M suffixes
// for large values.
func FormatBalance(raw *big.Int, decimals int) string {
	d := decimal.NewFromBigInt(raw, -int32(decimals))

	switch {
	case d.IsZero():
		return "0"
	case d.LessThan(decimal.New(1, -3)):
		return "< 0.001"
	case d.LessThan(decimal.New(1, 0)):
		return d.StringFixed(3)
	case d.LessThan(decimal.New(1, 3)):
		return d.StringFixed(2)
	case d.LessThan(decimal.New(1, 6)):
		return d.Div(decimal.New(1, 3)).StringFixed(2) + "K"
	default:
		return d.Div(decimal.New(1, 6)).StringFixed(2) + "M"
	}
}
