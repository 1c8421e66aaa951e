// Package money holds the fixed-point conventions shared by every other package.
//
// Amounts are int64 minor units (cents). Percentages are int64 basis points, so
// FullPercent (10000) means 100%. Share inputs typed by users are scaled by 100 as
// well, which keeps two implied decimals for every kind of split.
package money

import (
	"errors"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	// FullPercent is 100% expressed in basis points.
	FullPercent int64 = 10000

	// MaxAmount is the largest amount an expense may carry (10,000,000.00).
	MaxAmount int64 = 10_000_000_00

	// scale is the number of implied decimals in minor units and shares.
	scale int32 = 2
)

// ErrInvalidAmount is returned when a decimal string cannot be turned into minor units.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal string ("12.34" or "12,34") into minor units,
// rounding half away from zero on the third decimal.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	minor := d.Shift(scale).Round(0)
	if minor.Abs().GreaterThan(decimal.NewFromInt(MaxAmount)) {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// ParseShares converts a user-typed share, percentage or amount into its stored
// integer form. It uses the same scaling as ParseAmount.
func ParseShares(s string) (int64, error) {
	return ParseAmount(s)
}

// Format renders an amount for display. ISO codes known to go-money use its
// symbol, separators and template, but always with the two implied decimals of
// minor units (JPY 1234 is "¥12.34"). Anything else (custom symbols like "€" or
// labels like "pts") follows the group convention: a single character is a
// prefix, longer strings a suffix.
func Format(currency string, amount int64) string {
	if c := gomoney.GetCurrency(strings.ToUpper(currency)); c != nil && len(currency) == 3 {
		f := gomoney.NewFormatter(int(scale), c.Decimal, c.Thousand, c.Grapheme, c.Template)
		return f.Format(amount)
	}
	template := "1 $"
	if len([]rune(currency)) <= 1 {
		template = "$1"
	}
	f := gomoney.NewFormatter(int(scale), ".", ",", currency, template)
	return strings.TrimSpace(f.Format(amount))
}

// FormatShares renders a stored share value as typed by the user: "30" for a
// percentage of 3000 basis points, "12.5" for an amount of 1250.
func FormatShares(shares int64) string {
	return decimal.New(shares, -scale).String()
}

// Abs returns the magnitude of an amount.
func Abs(amount int64) int64 {
	if amount < 0 {
		return -amount
	}
	return amount
}
