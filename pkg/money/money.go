// Package money converts between two-decimal amount strings and integer
// minor units (cents). All ledger arithmetic happens on int64 minor units;
// decimal.Decimal is only used at the edges and for rate multiplication.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fraction digits of every amount.
const Scale = 2

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrOverflow      = errors.New("amount out of range")
	ErrInvalidRate   = errors.New("invalid rate")
)

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// ParseMinor converts a decimal string with up to 2 fractional digits into
// minor units. Only strictly positive amounts are accepted.
func ParseMinor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: amount required", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}

	if !d.Equal(d.Truncate(Scale)) {
		return 0, fmt.Errorf("%w: amount supports up to %d decimals", ErrInvalidAmount, Scale)
	}

	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be > 0", ErrInvalidAmount)
	}

	minor := d.Shift(Scale)
	if minor.GreaterThan(maxMinor) {
		return 0, fmt.Errorf("%w: %w", ErrInvalidAmount, ErrOverflow)
	}

	return minor.IntPart(), nil
}

// Format renders minor units as a fixed two-decimal string, e.g. 1015 -> "10.15".
func Format(minor int64) string {
	return decimal.New(minor, -Scale).StringFixed(Scale)
}

// Add sums two amounts, failing instead of wrapping.
func Add(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}

	return a + b, nil
}

// Mul multiplies a per-unit amount by a count, failing instead of wrapping.
func Mul(unitMinor, count int64) (int64, error) {
	if unitMinor < 0 || count < 0 {
		return 0, fmt.Errorf("%w: negative operand", ErrInvalidAmount)
	}

	if count != 0 && unitMinor > math.MaxInt64/count {
		return 0, ErrOverflow
	}

	return unitMinor * count, nil
}

// ValidateRate accepts rates in the closed interval [0, 1].
func ValidateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: %s not in [0, 1]", ErrInvalidRate, rate.String())
	}

	return nil
}

// Split divides total into the rate share (rounded half away from zero to a
// whole minor unit) and the remainder. part + rest == total always holds.
func Split(totalMinor int64, rate decimal.Decimal) (part, rest int64) {
	part = decimal.NewFromInt(totalMinor).Mul(rate).Round(0).IntPart()

	switch {
	case part < 0:
		part = 0
	case part > totalMinor:
		part = totalMinor
	}

	return part, totalMinor - part
}
