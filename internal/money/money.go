// Package money parses monetary form input into fixed-point decimals.
//
// Amounts are held with exactly two fractional digits; parsing accepts both
// dot (12.34) and comma (12,34) separators and rounds half-up on the third
// decimal place.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount reports input that does not parse as a decimal amount.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a form value into a two-place decimal.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35 (rounds half-up)
//	ParseAmount("-5")     -> -5.00
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// Format renders a decimal with exactly two fractional digits for display.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
