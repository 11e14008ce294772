package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Cents is a monetary amount in hundredths of the currency unit
type Cents int64

// String formats the amount with two decimals, e.g. "9.60"
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MaxAmount bounds any single amount so totals and rounding stay well inside int64
const MaxAmount Cents = 1_000_000_000_00

// ParseCents parses a decimal string such as "48", "48.5" or "48.00".
// More than two fractional digits are rejected rather than rounded.
func ParseCents(s string) (Cents, error) {
	in := s
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, fmt.Errorf("parse amount: empty string")
	}

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" && !hasFrac {
		return 0, fmt.Errorf("parse amount %q: no digits", in)
	}
	if !isDigits(whole) {
		return 0, fmt.Errorf("parse amount %q: invalid whole part", in)
	}
	if hasFrac && (len(frac) == 0 || len(frac) > 2 || !isDigits(frac)) {
		return 0, fmt.Errorf("parse amount %q: expected one or two decimal digits", in)
	}
	if whole == "" {
		whole = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > int64(MaxAmount)/100 {
		return 0, fmt.Errorf("parse amount %q: out of range", in)
	}
	hundredths, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", in, err)
	}

	total := Cents(units*100 + hundredths)
	if total > MaxAmount {
		return 0, fmt.Errorf("parse amount %q: out of range", in)
	}
	if neg {
		total = -total
	}
	return total, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// DivideHalfUp divides c by n, rounding half away from zero to the nearest cent
func (c Cents) DivideHalfUp(n int) Cents {
	if n <= 0 {
		return 0
	}
	v := int64(c)
	d := int64(n)
	if v >= 0 {
		return Cents((2*v + d) / (2 * d))
	}
	return -Cents((-2*v + d) / (2 * d))
}
