package services

import (
	"context"
	"fmt"

	"casal/internal/amqp"
	"casal/internal/core"
	"casal/internal/store"
)

type IncomeStore interface {
	store.IncomeReader
	store.IncomeWriter
}

// IncomeService records monthly earnings. Incomes are never expanded.
type IncomeService struct {
	store     IncomeStore
	publisher ChangePublisher
}

func NewIncomeService(st IncomeStore, publisher ChangePublisher) *IncomeService {
	return &IncomeService{store: st, publisher: publisher}
}

// AddIncome rejects non-positive amounts before anything is written.
func (s *IncomeService) AddIncome(ctx context.Context, sess *Session, in core.Income) (core.Income, error) {
	coupleID, err := sess.CoupleID()
	if err != nil {
		return core.Income{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	saved, err := s.store.AppendIncome(ctx, coupleID, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}
	publishChange(ctx, s.publisher, coupleID, amqp.OpIncomeChanged, []core.YearMonth{saved.YearMonth}, saved.ID)
	return saved, nil
}

func (s *IncomeService) UpdateIncome(ctx context.Context, sess *Session, id string, patch core.IncomePatch) (core.Income, error) {
	coupleID, err := sess.CoupleID()
	if err != nil {
		return core.Income{}, err
	}
	if patch.Amount != nil && *patch.Amount <= 0 {
		return core.Income{}, core.ErrInvalidAmount
	}
	before, err := s.findIncome(ctx, coupleID, id)
	if err != nil {
		return core.Income{}, err
	}
	after, err := s.store.UpdateIncome(ctx, coupleID, id, patch)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}
	publishChange(ctx, s.publisher, coupleID, amqp.OpIncomeChanged,
		[]core.YearMonth{before.YearMonth, after.YearMonth}, id)
	return after, nil
}

func (s *IncomeService) RemoveIncome(ctx context.Context, sess *Session, id string) error {
	coupleID, err := sess.CoupleID()
	if err != nil {
		return err
	}
	before, err := s.findIncome(ctx, coupleID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteIncome(ctx, coupleID, id); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	publishChange(ctx, s.publisher, coupleID, amqp.OpIncomeChanged, []core.YearMonth{before.YearMonth}, id)
	return nil
}

func (s *IncomeService) findIncome(ctx context.Context, coupleID, id string) (core.Income, error) {
	incomes, err := s.store.ListIncomes(ctx, coupleID)
	if err != nil {
		return core.Income{}, fmt.Errorf("list incomes: %w", err)
	}
	for _, in := range incomes {
		if in.ID == id {
			return in, nil
		}
	}
	return core.Income{}, core.ErrNotFound
}
