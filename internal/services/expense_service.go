package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"casal/internal/amqp"
	"casal/internal/core"
	"casal/internal/store"
)

// ExpenseStore is what the expense service needs from persistence.
type ExpenseStore interface {
	store.ExpenseReader
	store.ExpenseWriter
	store.CategoryCounter
}

// ExpenseService expands, stores and announces expense writes.
type ExpenseService struct {
	store     ExpenseStore
	publisher ChangePublisher
	expander  *Expander
}

func NewExpenseService(st ExpenseStore, publisher ChangePublisher) *ExpenseService {
	return &ExpenseService{
		store:     st,
		publisher: publisher,
		expander:  NewExpander(nil),
	}
}

// WithExpander swaps the expander, e.g. for deterministic group ids.
func (s *ExpenseService) WithExpander(x *Expander) *ExpenseService {
	s.expander = x
	return s
}

// CreateExpense expands the draft and stores every occurrence in one batch.
func (s *ExpenseService) CreateExpense(ctx context.Context, sess *Session, d ExpenseDraft) ([]core.Expense, error) {
	coupleID, err := sess.CoupleID()
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	occurrences := s.expander.Expand(d)
	saved, err := s.store.AppendExpenses(ctx, coupleID, occurrences)
	if err != nil {
		return nil, fmt.Errorf("save expenses: %w", err)
	}

	// Usage counter is bookkeeping only
	if err := s.store.RecordCategoryUse(ctx, coupleID, d.Category); err != nil {
		slog.WarnContext(ctx, "Failed to record category use",
			"couple_id", coupleID, "category", d.Category, "error", err)
	}

	months := make([]core.YearMonth, len(saved))
	ids := make([]string, len(saved))
	for i, e := range saved {
		months[i], ids[i] = e.YearMonth, e.ID
	}
	publishChange(ctx, s.publisher, coupleID, amqp.OpExpenseCreated, months, ids...)

	slog.InfoContext(ctx, "Expense created",
		"couple_id", coupleID,
		"occurrences", len(saved),
		"group_id", saved[0].GroupID,
		"amount_cents", d.Amount,
		"year_month", saved[0].YearMonth.String())
	return saved, nil
}

// UpdateExpense edits one record in place; siblings of a series are untouched.
func (s *ExpenseService) UpdateExpense(ctx context.Context, sess *Session, id string, patch core.ExpensePatch) (core.Expense, error) {
	coupleID, err := sess.CoupleID()
	if err != nil {
		return core.Expense{}, err
	}
	before, err := s.editable(ctx, coupleID, id)
	if err != nil {
		return core.Expense{}, err
	}
	if patch.Category != nil && strings.EqualFold(strings.TrimSpace(*patch.Category), core.SettlementCategory) {
		return core.Expense{}, core.ErrSettlementRecord
	}
	if err := patch.Apply(before).Validate(); err != nil {
		return core.Expense{}, err
	}
	after, err := s.store.UpdateExpense(ctx, coupleID, id, patch)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if patch.Category != nil && *patch.Category != before.Category {
		if err := s.store.RecordCategoryUse(ctx, coupleID, after.Category); err != nil {
			slog.WarnContext(ctx, "Failed to record category use", "couple_id", coupleID, "error", err)
		}
	}
	publishChange(ctx, s.publisher, coupleID, amqp.OpExpenseUpdated,
		[]core.YearMonth{before.YearMonth, after.YearMonth}, id)
	return after, nil
}

// DeleteExpense soft deletes; the record stays in storage.
func (s *ExpenseService) DeleteExpense(ctx context.Context, sess *Session, id string) error {
	coupleID, err := sess.CoupleID()
	if err != nil {
		return err
	}
	e, err := s.editable(ctx, coupleID, id)
	if err != nil {
		return err
	}
	if err := s.store.SoftDeleteExpense(ctx, coupleID, id); err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	publishChange(ctx, s.publisher, coupleID, amqp.OpExpenseDeleted, []core.YearMonth{e.YearMonth}, id)
	return nil
}

// PurgeExpense removes the record for good.
func (s *ExpenseService) PurgeExpense(ctx context.Context, sess *Session, id string) error {
	coupleID, err := sess.CoupleID()
	if err != nil {
		return err
	}
	e, err := s.editable(ctx, coupleID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, coupleID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	publishChange(ctx, s.publisher, coupleID, amqp.OpExpenseDeleted, []core.YearMonth{e.YearMonth}, id)
	return nil
}

// editable loads a record the expense endpoints may change. Settlements
// only change through the settlement service.
func (s *ExpenseService) editable(ctx context.Context, coupleID, id string) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, coupleID, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	if e.IsSettlement() {
		return core.Expense{}, core.ErrSettlementRecord
	}
	return e, nil
}
