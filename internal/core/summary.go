package core

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// TopCategoryLimit caps the per-category breakdown of a month summary.
const TopCategoryLimit = 5

// HistoryMonths is how many preceding months feed the comparison.
const HistoryMonths = 3

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthSlice is the subset of records belonging to one month. Never stored.
type MonthSlice struct {
	YearMonth YearMonth
	Expenses  []Expense
	Incomes   []Income
}

// MonthSummary holds every total derived from a month slice, in cents.
type MonthSummary struct {
	YearMonth     YearMonth
	TotalIn       int64
	TotalOut      int64
	Saved         int64
	Fixed         int64
	Variable      int64
	CardTotal     int64
	PaidA         int64
	PaidB         int64
	Personal      int64
	TopCategories []CategoryAmount
	TopItem       *Expense
}

// Comparison relates a month's outflow to the average of prior months.
type Comparison struct {
	Months       int
	PriorAverage int64
	// Drift is (current-average)/average; 0 without usable history.
	Drift float64
}

// SliceMonth keeps live, non-settlement expenses and the incomes of ym.
func SliceMonth(expenses []Expense, incomes []Income, ym YearMonth) MonthSlice {
	s := MonthSlice{YearMonth: ym}
	for _, e := range expenses {
		if e.Deleted || e.IsSettlement() || e.YearMonth != ym {
			continue
		}
		s.Expenses = append(s.Expenses, e)
	}
	for _, i := range incomes {
		if i.YearMonth == ym {
			s.Incomes = append(s.Incomes, i)
		}
	}
	return s
}

// Summarize computes the totals for an already-sliced month.
func Summarize(s MonthSlice) MonthSummary {
	sum := MonthSummary{YearMonth: s.YearMonth}
	byCategory := make(map[string]int64)
	var order []string

	for i, e := range s.Expenses {
		amount := e.Amount.Cents
		sum.TotalOut += amount
		if e.IsFixed {
			sum.Fixed += amount
		}
		if e.IsCard {
			sum.CardTotal += amount
		}
		if e.PaidBy == PartyB {
			sum.PaidB += amount
		} else {
			sum.PaidA += amount
		}
		if e.Split.Personal() {
			sum.Personal += amount
		}
		if _, seen := byCategory[e.Category]; !seen {
			order = append(order, e.Category)
		}
		byCategory[e.Category] += amount
		// strict comparison keeps the first of equal amounts
		if sum.TopItem == nil || amount > sum.TopItem.Amount.Cents {
			sum.TopItem = &s.Expenses[i]
		}
	}
	for _, in := range s.Incomes {
		sum.TotalIn += in.Amount.Cents
	}
	sum.Saved = sum.TotalIn - sum.TotalOut
	sum.Variable = sum.TotalOut - sum.Fixed

	cats := make([]CategoryAmount, 0, len(order))
	for _, name := range order {
		cats = append(cats, CategoryAmount{Name: name, Amount: Money{Cents: byCategory[name]}})
	}
	slices.SortStableFunc(cats, func(a, b CategoryAmount) int {
		return cmp.Compare(b.Amount.Cents, a.Amount.Cents)
	})
	if len(cats) > TopCategoryLimit {
		cats = cats[:TopCategoryLimit]
	}
	sum.TopCategories = cats
	return sum
}

// Aggregate slices and summarizes the records of ym.
func Aggregate(expenses []Expense, incomes []Income, ym YearMonth) MonthSummary {
	return Summarize(SliceMonth(expenses, incomes, ym))
}

// History summarizes the n months preceding ym, most recent first.
func History(expenses []Expense, incomes []Income, ym YearMonth, n int) []MonthSummary {
	months := ym.Preceding(n)
	out := make([]MonthSummary, 0, len(months))
	for _, m := range months {
		out = append(out, Aggregate(expenses, incomes, m))
	}
	return out
}

// Compare measures drift of current against the average outflow of up to
// HistoryMonths entries of history. Entries for the current month are ignored.
func Compare(current MonthSummary, history []MonthSummary) Comparison {
	var prior []MonthSummary
	for _, h := range history {
		if h.YearMonth == current.YearMonth {
			continue
		}
		prior = append(prior, h)
		if len(prior) == HistoryMonths {
			break
		}
	}
	if len(prior) == 0 {
		return Comparison{}
	}

	var total int64
	for _, h := range prior {
		total += h.TotalOut
	}
	n := decimal.NewFromInt(int64(len(prior)))
	c := Comparison{
		Months:       len(prior),
		PriorAverage: decimal.NewFromInt(total).Div(n).Round(0).IntPart(),
	}
	if total == 0 {
		return c
	}
	// (current - total/n) / (total/n) == (current*n - total) / total
	drift := decimal.NewFromInt(current.TotalOut).Mul(n).Sub(decimal.NewFromInt(total)).
		Div(decimal.NewFromInt(total))
	c.Drift = drift.InexactFloat64()
	return c
}

// Share returns part/whole as a fraction, or false when whole is not positive.
func Share(part, whole int64) (float64, bool) {
	if whole <= 0 {
		return 0, false
	}
	return decimal.NewFromInt(part).Div(decimal.NewFromInt(whole)).InexactFloat64(), true
}
