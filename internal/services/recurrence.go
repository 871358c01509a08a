// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for turning one user-entered
// expense into the occurrences to persist. Each rule kind (installments,
// fixed, single) has its own strategy; the choice is made once per draft.
package services

import (
	"strings"

	"github.com/google/uuid"

	"casal/internal/core"
)

// ExpenseDraft is what a user submits before expansion.
type ExpenseDraft struct {
	Title        string
	Amount       int64
	Date         core.Date
	Category     string
	PaidBy       core.Party
	Split        core.Split
	IsFixed      bool
	FixedKind    core.FixedKind
	IsCard       bool
	Installments int
}

// Validate rejects drafts that must not reach the expander.
func (d ExpenseDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return core.ErrEmptyTitle
	}
	if d.Amount < 0 {
		return core.ErrInvalidAmount
	}
	if strings.EqualFold(strings.TrimSpace(d.Category), core.SettlementCategory) {
		return core.ErrSettlementRecord
	}
	return d.base().Validate()
}

// base is the draft as a plain record: no linkage, year-month from the date.
func (d ExpenseDraft) base() core.Expense {
	return core.Expense{
		Title:     strings.TrimSpace(d.Title),
		Amount:    core.Money{Cents: d.Amount},
		Date:      d.Date,
		YearMonth: d.Date.YearMonth(),
		Category:  strings.TrimSpace(d.Category),
		PaidBy:    d.PaidBy,
		Split:     d.Split,
		IsFixed:   d.IsFixed,
		FixedKind: d.FixedKind,
		IsCard:    d.IsCard,
	}
}

// ExpansionStrategy produces the ordered occurrences for one draft.
type ExpansionStrategy interface {
	// RuleKind is empty for strategies that emit a single ungrouped record.
	RuleKind() core.RuleKind
	Expand(d ExpenseDraft, groupID string) []core.Expense
}

// InstallmentExpansion spreads a card purchase over consecutive months.
type InstallmentExpansion struct{}

func (InstallmentExpansion) RuleKind() core.RuleKind { return core.RuleInstallments }

// Expand splits the amount by largest remainder so the parts sum to the total.
// The first occurrence keeps the entered date, the rest fall on the 1st.
func (InstallmentExpansion) Expand(d ExpenseDraft, groupID string) []core.Expense {
	n := d.Installments
	months := d.Date.YearMonth().Sequence(n)
	parts := core.SplitEvenly(d.Amount, n)
	out := make([]core.Expense, n)
	for i := range out {
		e := d.base()
		if i > 0 {
			e.Date = months[i].FirstDay()
		}
		e.YearMonth = months[i]
		e.Amount = core.Money{Cents: parts[i]}
		e.IsCard = true
		e.Installments = n
		e.InstallmentNumber = i + 1
		e.IsFixed = false
		e.FixedKind = ""
		e.RuleKind = core.RuleInstallments
		e.GroupID = groupID
		e.Generated = i > 0
		out[i] = e
	}
	return out
}

// FixedExpansion repeats the full amount every month until December.
type FixedExpansion struct{}

func (FixedExpansion) RuleKind() core.RuleKind { return core.RuleFixed }

func (FixedExpansion) Expand(d ExpenseDraft, groupID string) []core.Expense {
	months := d.Date.YearMonth().ThroughDecember()
	out := make([]core.Expense, len(months))
	for i, ym := range months {
		e := d.base()
		if i > 0 {
			e.Date = ym.FirstDay()
		}
		e.YearMonth = ym
		e.IsFixed = true
		e.IsCard = false
		e.Installments = 0
		e.RuleKind = core.RuleFixed
		e.GroupID = groupID
		e.Generated = i > 0
		out[i] = e
	}
	return out
}

// SingleEntry emits the draft unchanged.
type SingleEntry struct{}

func (SingleEntry) RuleKind() core.RuleKind { return "" }

func (SingleEntry) Expand(d ExpenseDraft, _ string) []core.Expense {
	e := d.base()
	e.Installments = 1
	if e.IsCard {
		e.Installments = max(1, d.Installments)
	}
	if !e.IsFixed {
		e.FixedKind = ""
	}
	return []core.Expense{e}
}

// SelectExpansion picks the strategy: installments first, then fixed,
// otherwise a single record.
func SelectExpansion(d ExpenseDraft) ExpansionStrategy {
	switch {
	case d.IsCard && d.Installments > 1:
		return InstallmentExpansion{}
	case d.IsFixed:
		return FixedExpansion{}
	default:
		return SingleEntry{}
	}
}

// Expander assigns group ids and runs the selected strategy.
type Expander struct {
	newGroupID func() string
}

func NewExpander(newGroupID func() string) *Expander {
	if newGroupID == nil {
		newGroupID = uuid.NewString
	}
	return &Expander{newGroupID: newGroupID}
}

// Expand returns the ordered occurrences for d. Callers assign ids and
// timestamps when writing.
func (x *Expander) Expand(d ExpenseDraft) []core.Expense {
	strategy := SelectExpansion(d)
	var groupID string
	if strategy.RuleKind() != "" {
		groupID = x.newGroupID()
	}
	return strategy.Expand(d, groupID)
}
