package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are plain float64 values in a single fixed currency. Parsing and
// formatting go through decimal so that what is written to reports and
// ledger files is exactly what the user typed.

// CurrencySymbol prefixes every amount in reports.
const CurrencySymbol = "₹"

// ParseAmount parses a non-negative decimal amount. Both dot (12.34) and
// comma (12,34) separators are accepted.
//
// Examples:
//
//	ParseAmount("850")    -> 850, nil
//	ParseAmount("12,50")  -> 12.5, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// FormatAmount renders v with two decimals and the currency symbol, e.g. ₹-150.00.
func FormatAmount(v float64) string {
	return CurrencySymbol + FormatFixed(v)
}

// FormatFixed renders v with two decimals.
func FormatFixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatTotal renders a ledger total the way the ledger file stores it:
// shortest representation, always with a fractional part (200.0, 12.5).
func FormatTotal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// CoerceTotal parses a stored total. Anything that is not a finite number
// becomes 0.0; this leniency is intentional.
func CoerceTotal(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return FiniteTotal(v)
}

// FiniteTotal maps NaN and infinities to zero.
func FiniteTotal(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
