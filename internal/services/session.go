package services

import (
	"context"
	"errors"
	"fmt"

	"casal/internal/core"
	"casal/internal/insights"
	"casal/internal/store"
)

// Session is the household context every operation runs against: the
// couple and a snapshot of its records.
type Session struct {
	Couple   core.Couple
	Expenses []core.Expense
	Incomes  []core.Income
}

// SessionReader is the subset of the store needed to build a session.
type SessionReader interface {
	store.CoupleStore
	store.ExpenseReader
	store.IncomeReader
}

// LoadSession snapshots a couple's records. An unknown or empty couple id
// yields ErrNoHousehold.
func LoadSession(ctx context.Context, r SessionReader, coupleID string) (*Session, error) {
	if coupleID == "" {
		return nil, core.ErrNoHousehold
	}
	couple, err := r.GetCouple(ctx, coupleID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrNoHousehold
		}
		return nil, fmt.Errorf("load couple: %w", err)
	}
	expenses, err := r.ListExpenses(ctx, coupleID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	incomes, err := r.ListIncomes(ctx, coupleID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	return &Session{Couple: couple, Expenses: expenses, Incomes: incomes}, nil
}

// CoupleID returns the household id, or ErrNoHousehold when there is none.
func (s *Session) CoupleID() (string, error) {
	if s == nil || s.Couple.ID == "" {
		return "", core.ErrNoHousehold
	}
	return s.Couple.ID, nil
}

// MonthReport bundles everything derived for one month.
type MonthReport struct {
	Couple     core.Couple
	Summary    core.MonthSummary
	Comparison core.Comparison
	Balance    core.BalanceStatus
	Tips       []insights.Tip
}

// Report derives the month's summary, comparison, balance and tips from the
// snapshot.
func (s *Session) Report(ym core.YearMonth) MonthReport {
	summary := core.Aggregate(s.Expenses, s.Incomes, ym)
	history := core.History(s.Expenses, s.Incomes, ym, core.HistoryMonths)
	comparison := core.Compare(summary, history)
	return MonthReport{
		Couple:     s.Couple,
		Summary:    summary,
		Comparison: comparison,
		Balance:    core.Balance(s.Expenses, ym),
		Tips:       insights.Generate(summary, comparison, s.Couple),
	}
}
