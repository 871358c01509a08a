package core

import (
	"time"
)

const (
	Balanced BalanceState = "balanced"
	Owed     BalanceState = "owed"
)

type BalanceState string

// BalanceStatus is the settlement view of one month.
//
// Net follows only regular expenses; positive means B owes A. Settled is the
// same formula applied to settlement records, so Outstanding = Net + Settled
// is what is still due after recorded payments.
type BalanceStatus struct {
	YearMonth   YearMonth
	Net         int64
	Settled     int64
	Outstanding int64
	State       BalanceState
	Debtor      Party
	Creditor    Party
	Amount      int64
}

// contribution is what one expense moves between the parties: the payer is
// owed the counterparty's share.
func contribution(e Expense) int64 {
	shares := ComputeShares(e.Amount.Cents, e.Split, e.PaidBy)
	if e.PaidBy == PartyB {
		return -shares.A
	}
	return shares.B
}

// NetBalance sums the month's live, non-settlement expenses.
// Positive: B owes A. Negative: A owes B.
func NetBalance(expenses []Expense, ym YearMonth) int64 {
	var net int64
	for _, e := range expenses {
		if e.Deleted || e.IsSettlement() || e.YearMonth != ym {
			continue
		}
		net += contribution(e)
	}
	return net
}

// SettledAmount sums the month's settlement records with the balance formula.
func SettledAmount(expenses []Expense, ym YearMonth) int64 {
	var settled int64
	for _, e := range expenses {
		if e.Deleted || !e.IsSettlement() || e.YearMonth != ym {
			continue
		}
		settled += contribution(e)
	}
	return settled
}

// Balance derives the month's state from scratch.
func Balance(expenses []Expense, ym YearMonth) BalanceStatus {
	b := BalanceStatus{
		YearMonth: ym,
		Net:       NetBalance(expenses, ym),
		Settled:   SettledAmount(expenses, ym),
		State:     Balanced,
	}
	b.Outstanding = b.Net + b.Settled
	switch {
	case b.Outstanding > 0:
		b.State, b.Debtor, b.Creditor, b.Amount = Owed, PartyB, PartyA, b.Outstanding
	case b.Outstanding < 0:
		b.State, b.Debtor, b.Creditor, b.Amount = Owed, PartyA, PartyB, -b.Outstanding
	}
	return b
}

// NewSettlement builds the record that pays off the outstanding balance of ym.
// The debtor pays and 100% of the amount is routed to the creditor.
func NewSettlement(coupleID string, ym YearMonth, outstanding int64, now time.Time) (Expense, bool) {
	if outstanding == 0 {
		return Expense{}, false
	}
	debtor, split, amount := PartyB, Split{A: 100, B: 0}, outstanding
	if outstanding < 0 {
		debtor, split, amount = PartyA, Split{A: 0, B: 100}, -outstanding
	}
	day := SettlementDate(ym, now)
	return Expense{
		CoupleID:  coupleID,
		Title:     "Settlement",
		Amount:    Money{Cents: amount},
		Date:      day,
		YearMonth: day.YearMonth(),
		Category:  SettlementCategory,
		PaidBy:    debtor,
		Split:     split,
	}, true
}

// LatestSettlement returns the most recent live settlement of ym, comparing
// date first and creation time second.
func LatestSettlement(expenses []Expense, ym YearMonth) (Expense, bool) {
	var (
		latest Expense
		found  bool
	)
	for _, e := range expenses {
		if e.Deleted || !e.IsSettlement() || e.YearMonth != ym {
			continue
		}
		if !found || e.Date.After(latest.Date.Time) ||
			(e.Date.Equal(latest.Date.Time) && e.CreatedAt.After(latest.CreatedAt)) {
			latest, found = e, true
		}
	}
	return latest, found
}

// SettlementDate is today when today falls in ym, otherwise the closest day
// of ym, so the record always lands in the month it settles.
func SettlementDate(ym YearMonth, now time.Time) Date {
	today := DateOf(now)
	switch current := today.YearMonth(); {
	case current == ym:
		return today
	case ym.Before(current):
		return Date{Time: ym.AddMonths(1).FirstDay().AddDate(0, 0, -1)}
	default:
		return ym.FirstDay()
	}
}
