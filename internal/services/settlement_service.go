package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"casal/internal/amqp"
	"casal/internal/core"
	"casal/internal/store"
)

type SettlementStore interface {
	store.ExpenseReader
	AppendExpenses(ctx context.Context, coupleID string, es []core.Expense) ([]core.Expense, error)
	DeleteExpense(ctx context.Context, coupleID, id string) error
}

// SettlementResult reports what a settle or undo call did. Recorded is
// false for no-ops and for callers that joined an operation already in
// flight.
type SettlementResult struct {
	Recorded   bool
	Settlement core.Expense
	Balance    core.BalanceStatus
}

// SettlementService records and reverts settlement payments. Calls for the
// same couple and month are collapsed while one is in flight.
type SettlementService struct {
	store     SettlementStore
	publisher ChangePublisher
	flight    singleflight.Group
	now       func() time.Time
}

func NewSettlementService(st SettlementStore, publisher ChangePublisher) *SettlementService {
	return &SettlementService{store: st, publisher: publisher, now: time.Now}
}

// WithClock replaces the time source used to date settlement records.
func (s *SettlementService) WithClock(now func() time.Time) *SettlementService {
	s.now = now
	return s
}

// SettleBalance writes one settlement for whatever is still outstanding in
// ym. With nothing outstanding it changes nothing.
func (s *SettlementService) SettleBalance(ctx context.Context, sess *Session, ym core.YearMonth) (SettlementResult, error) {
	coupleID, err := sess.CoupleID()
	if err != nil {
		return SettlementResult{}, err
	}
	return s.once(ctx, "settle", coupleID, ym, func() (SettlementResult, error) {
		expenses, err := s.store.ListExpenses(ctx, coupleID)
		if err != nil {
			return SettlementResult{}, fmt.Errorf("list expenses: %w", err)
		}
		balance := core.Balance(expenses, ym)
		record, ok := core.NewSettlement(coupleID, ym, balance.Outstanding, s.now())
		if !ok {
			return SettlementResult{Balance: balance}, nil
		}

		saved, err := s.store.AppendExpenses(ctx, coupleID, []core.Expense{record})
		if err != nil {
			return SettlementResult{}, fmt.Errorf("save settlement: %w", err)
		}
		settlement := saved[0]
		publishChange(ctx, s.publisher, coupleID, amqp.OpSettled, []core.YearMonth{ym}, settlement.ID)

		slog.InfoContext(ctx, "Settlement recorded",
			"couple_id", coupleID,
			"year_month", ym.String(),
			"debtor", balance.Debtor,
			"amount_cents", settlement.Amount.Cents)
		return SettlementResult{
			Recorded:   true,
			Settlement: settlement,
			Balance:    core.Balance(append(expenses, settlement), ym),
		}, nil
	})
}

// UndoSettlement hard-deletes the latest settlement of ym, if any.
func (s *SettlementService) UndoSettlement(ctx context.Context, sess *Session, ym core.YearMonth) (SettlementResult, error) {
	coupleID, err := sess.CoupleID()
	if err != nil {
		return SettlementResult{}, err
	}
	return s.once(ctx, "undo", coupleID, ym, func() (SettlementResult, error) {
		expenses, err := s.store.ListExpenses(ctx, coupleID)
		if err != nil {
			return SettlementResult{}, fmt.Errorf("list expenses: %w", err)
		}
		latest, ok := core.LatestSettlement(expenses, ym)
		if !ok {
			return SettlementResult{Balance: core.Balance(expenses, ym)}, nil
		}
		if err := s.store.DeleteExpense(ctx, coupleID, latest.ID); err != nil {
			return SettlementResult{}, fmt.Errorf("delete settlement: %w", err)
		}
		publishChange(ctx, s.publisher, coupleID, amqp.OpSettlementUndone, []core.YearMonth{ym}, latest.ID)

		remaining := make([]core.Expense, 0, len(expenses))
		for _, e := range expenses {
			if e.ID != latest.ID {
				remaining = append(remaining, e)
			}
		}
		slog.InfoContext(ctx, "Settlement undone",
			"couple_id", coupleID,
			"year_month", ym.String(),
			"settlement_id", latest.ID)
		return SettlementResult{
			Recorded:   true,
			Settlement: latest,
			Balance:    core.Balance(remaining, ym),
		}, nil
	})
}

// once runs fn unless the same operation is already running for the couple
// and month; joiners get the leader's outcome with Recorded cleared.
func (s *SettlementService) once(ctx context.Context, op, coupleID string, ym core.YearMonth, fn func() (SettlementResult, error)) (SettlementResult, error) {
	leader := false
	key := op + ":" + coupleID + ":" + ym.String()
	v, err, _ := s.flight.Do(key, func() (any, error) {
		leader = true
		return fn()
	})
	if err != nil {
		return SettlementResult{}, err
	}
	res := v.(SettlementResult)
	if !leader {
		slog.DebugContext(ctx, "Settlement operation already in flight", "op", op, "couple_id", coupleID)
		res.Recorded = false
		res.Settlement = core.Expense{}
	}
	return res, nil
}
