// Package store declares the persistence ports the household services
// depend on. Implementations live in store/memory and storage (SQLite).
package store

import (
	"context"

	"casal/internal/core"
)

// Ports for outbound adapters. Every call is scoped to one couple.
type (
	ExpenseReader interface {
		// ListExpenses returns live and soft-deleted expenses of the couple.
		ListExpenses(ctx context.Context, coupleID string) ([]core.Expense, error)
		GetExpense(ctx context.Context, coupleID, id string) (core.Expense, error)
	}

	ExpenseWriter interface {
		// AppendExpenses persists every record or none. Ids, couple id and
		// timestamps are assigned here and returned in input order.
		AppendExpenses(ctx context.Context, coupleID string, es []core.Expense) ([]core.Expense, error)
		// UpdateExpense applies a partial update; a new date also moves the
		// stored year-month.
		UpdateExpense(ctx context.Context, coupleID, id string, patch core.ExpensePatch) (core.Expense, error)
		SoftDeleteExpense(ctx context.Context, coupleID, id string) error
		// DeleteExpense removes the record for good.
		DeleteExpense(ctx context.Context, coupleID, id string) error
	}

	IncomeReader interface {
		ListIncomes(ctx context.Context, coupleID string) ([]core.Income, error)
	}

	IncomeWriter interface {
		AppendIncome(ctx context.Context, coupleID string, in core.Income) (core.Income, error)
		UpdateIncome(ctx context.Context, coupleID, id string, patch core.IncomePatch) (core.Income, error)
		DeleteIncome(ctx context.Context, coupleID, id string) error
	}

	CoupleStore interface {
		CreateCouple(ctx context.Context, c core.Couple) (core.Couple, error)
		GetCouple(ctx context.Context, id string) (core.Couple, error)
		ListCouples(ctx context.Context) ([]core.Couple, error)
	}

	// CategoryCounter tracks how often each category is picked.
	CategoryCounter interface {
		RecordCategoryUse(ctx context.Context, coupleID, category string) error
		CategoryUsage(ctx context.Context, coupleID string) ([]CategoryCount, error)
	}

	// Store is everything a household backend provides.
	Store interface {
		ExpenseReader
		ExpenseWriter
		IncomeReader
		IncomeWriter
		CoupleStore
		CategoryCounter
		Close() error
	}
)

// CategoryCount is one row of category usage, most used first.
type CategoryCount struct {
	Category string
	Count    int
}
