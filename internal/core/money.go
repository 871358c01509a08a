// Package core provides money parsing and handling utilities.
//
// This file contains the conversions between localized amount strings and
// integer cents, plus the integer allocation helpers used by splits and
// installment plans.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// ParseAmount converts a localized amount ("2.500,00", "3,50", "12") to cents.
//
// Every '.' is treated as a thousands separator and the ',' as the decimal
// point. Anything that does not parse yields 0; it never fails.
//
// Examples:
//
//	ParseAmount("3,50")     -> 350
//	ParseAmount("2.500,00") -> 250000
//	ParseAmount("abc")      -> 0
func ParseAmount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0
	}
	return cents.IntPart()
}

// FormatCents renders cents for messages, e.g. "BRL 1234.56".
// Display only; never feed the result back into arithmetic.
func FormatCents(cents int64, currency string) string {
	amount := decimal.New(cents, -2).StringFixed(2)
	if currency == "" {
		return amount
	}
	return currency + " " + amount
}

// SplitEvenly divides total into n integer parts by largest remainder: the
// first total%n parts carry one extra cent, so the parts always sum to total.
func SplitEvenly(total int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	base := total / int64(n)
	rem := total - base*int64(n)
	parts := make([]int64, n)
	for i := range parts {
		parts[i] = base
		if int64(i) < rem {
			parts[i]++
		}
	}
	return parts
}
