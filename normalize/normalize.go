// Package normalize holds the pure field-normalization helpers shared by
// every extraction path. All functions are total: malformed input yields
// the zero value, never an error or a panic.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var jpyPrinter = message.NewPrinter(language.Japanese)

// Text collapses whitespace runs to single spaces and trims. Returns ""
// when nothing remains.
func Text(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Amount extracts an integer currency amount from a raw string by dropping
// everything except digits and the decimal point. Returns 0 when the input
// holds no finite positive number.
func Amount(raw string) int {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	n := int(math.Round(f))
	if n <= 0 {
		return 0
	}
	return n
}

// FormatJPY renders an amount as a yen display string with locale grouping,
// e.g. 12345 -> "¥ 12,345". Returns "" for non-positive amounts so the
// display field stays absent exactly when the amount is absent.
func FormatJPY(amount int) string {
	if amount <= 0 {
		return ""
	}
	return jpyPrinter.Sprintf("¥ %d", amount)
}
