// Package insights turns a month summary into short advisory tips.
package insights

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"casal/internal/core"
)

// Thresholds at which a rule fires, as fractions of the month's outflow
// unless stated otherwise.
const (
	DriftThreshold            = 0.15 // relative to the prior average
	DominantCategoryThreshold = 0.30
	LargeItemThreshold        = 0.25
	CardThreshold             = 0.50
	FixedThreshold            = 0.60
	ImbalanceThreshold        = 0.30
)

type Kind string

const (
	KindNoIncome         Kind = "no_income"
	KindDeficit          Kind = "deficit"
	KindSurplus          Kind = "surplus"
	KindDriftUp          Kind = "drift_up"
	KindDriftDown        Kind = "drift_down"
	KindDominantCategory Kind = "dominant_category"
	KindLargeItem        Kind = "large_item"
	KindCardHeavy        Kind = "card_heavy"
	KindFixedHeavy       Kind = "fixed_heavy"
	KindPersonal         Kind = "personal_expenses"
	KindImbalance        Kind = "payment_imbalance"
)

type Tip struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Generate evaluates every rule in order and returns the tips that fire.
// Ratio rules never fire for a month without outflow.
func Generate(s core.MonthSummary, c core.Comparison, couple core.Couple) []Tip {
	money := func(cents int64) string { return core.FormatCents(cents, couple.Currency) }
	var tips []Tip
	add := func(k Kind, format string, args ...any) {
		tips = append(tips, Tip{Kind: k, Message: fmt.Sprintf(format, args...)})
	}

	switch {
	case s.TotalIn <= 0:
		add(KindNoIncome, "No income recorded this month. Add incomes for a more accurate analysis.")
	case s.Saved < 0:
		add(KindDeficit, "Spending exceeded this month's income by %s. Consider cutting non-essential categories.", money(-s.Saved))
	default:
		add(KindSurplus, "%s left over this month. Consider setting part of it aside for a shared goal.", money(s.Saved))
	}

	if c.Months > 0 && math.Abs(c.Drift) >= DriftThreshold {
		pct := int64(math.Round(math.Abs(c.Drift) * 100))
		if c.Drift > 0 {
			add(KindDriftUp, "Spending is %d%% above the average of the last %d months.", pct, c.Months)
		} else {
			add(KindDriftDown, "Spending is %d%% below the average of the last %d months. Well done!", pct, c.Months)
		}
	}

	if len(s.TopCategories) > 0 {
		top := s.TopCategories[0]
		if reached(top.Amount.Cents, s.TotalOut, DominantCategoryThreshold) {
			add(KindDominantCategory, "Dominant category: %s (%s, %d%%). Try setting a limit for it.",
				top.Name, money(top.Amount.Cents), percent(top.Amount.Cents, s.TotalOut))
		}
	}

	if s.TopItem != nil && reached(s.TopItem.Amount.Cents, s.TotalOut, LargeItemThreshold) {
		add(KindLargeItem, "Largest expense: %s (%s). Check whether it is a one-off or recurring.",
			s.TopItem.Title, money(s.TopItem.Amount.Cents))
	}

	if reached(s.CardTotal, s.TotalOut, CardThreshold) {
		add(KindCardHeavy, "Card purchases make up %d%% of spending. Keep an eye on upcoming installments.",
			percent(s.CardTotal, s.TotalOut))
	}

	if reached(s.Fixed, s.TotalOut, FixedThreshold) {
		add(KindFixedHeavy, "Fixed costs are %d%% of spending (%s). Renegotiating contracts could help.",
			percent(s.Fixed, s.TotalOut), money(s.Fixed))
	}

	if s.Personal > 0 {
		add(KindPersonal, "%s in personal expenses this month. They are not part of the settlement between you.",
			money(s.Personal))
	}

	gap := s.PaidA - s.PaidB
	if gap < 0 {
		gap = -gap
	}
	if gap > 0 && reached(gap, s.TotalOut, ImbalanceThreshold) {
		who := core.PartyA
		if s.PaidB > s.PaidA {
			who = core.PartyB
		}
		add(KindImbalance, "%s paid considerably more this month. Review the split and settle up.", couple.Name(who))
	}

	return tips
}

// reached reports part/whole >= threshold; false when whole is not positive
// or part is zero.
func reached(part, whole int64, threshold float64) bool {
	if part <= 0 {
		return false
	}
	r, ok := core.Share(part, whole)
	return ok && r >= threshold
}

// percent is part/whole as a whole percentage, rounded half away from zero.
func percent(part, whole int64) int64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(whole), 0).IntPart()
}
