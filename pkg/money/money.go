package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

// Gateways disagree on amount representation: Stripe reports minor units
// (poisha/cents), SSLCommerz reports major-unit strings ("5208.00"). All
// conversion happens here, exactly once per direction, so downstream code
// only ever sees decimal major units or int64 minor units.

func exponent(c enums.Currency) int32 {
	switch c {
	case enums.CurrencyBDT, enums.CurrencyUSD:
		return 2
	default:
		return 2
	}
}

// FromMinorUnits converts a gateway minor-unit amount into major units.
func FromMinorUnits(minor int64, c enums.Currency) decimal.Decimal {
	return decimal.New(minor, -exponent(c))
}

// ToMinorUnits converts a major-unit amount into gateway minor units.
// Amounts with sub-minor precision are rejected rather than rounded.
func ToMinorUnits(major decimal.Decimal, c enums.Currency) (int64, error) {
	exp := exponent(c)
	scaled := major.Shift(exp)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has sub-minor precision for %s", major, c)
	}
	return scaled.IntPart(), nil
}

// ParseMajor parses a major-unit amount string as sent by SSLCommerz.
func ParseMajor(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q is negative", value)
	}
	return d, nil
}
