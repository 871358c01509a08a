package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"casal/internal/core"
	"casal/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db         *sql.DB
	queries    *Queries
	categories []string

	newID func() string
	now   func() time.Time
}

var _ store.Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the database at dbPath,
// applies pending migrations and upgrades rows left by older versions.
// categories seed couples created without their own list.
func NewSQLiteRepository(dbPath string, categories []string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; keep transactions on one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if len(categories) == 0 {
		categories = core.DefaultCategories
	}
	repo := &SQLiteRepository{
		db:         db,
		queries:    New(db),
		categories: categories,
		newID:      uuid.NewString,
		now:        time.Now,
	}

	if _, err := repo.UpgradeLegacyRows(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// WithClock replaces the timestamp source, for tests.
func (r *SQLiteRepository) WithClock(now func() time.Time) *SQLiteRepository {
	r.now = now
	return r
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// UpgradeLegacyRows rewrites expenses stored under an older schema version
// with their derived year-month, split and payer. Returns how many rows
// were touched.
func (r *SQLiteRepository) UpgradeLegacyRows(ctx context.Context) (int, error) {
	var n int
	err := r.inTx(ctx, func(q *Queries) error {
		rows, err := q.ListLegacyExpenses(ctx, currentSchemaVersion)
		if err != nil {
			return fmt.Errorf("list legacy expenses: %w", err)
		}
		for _, row := range rows {
			row = normalizeExpense(row)
			row.SchemaVersion = currentSchemaVersion
			if _, err := q.UpdateExpense(ctx, row); err != nil {
				return fmt.Errorf("upgrade expense %s: %w", row.ID, err)
			}
		}
		n = len(rows)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.InfoContext(ctx, "Legacy expenses upgraded", "count", n, "schema_version", currentSchemaVersion)
	}
	return n, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateCouple(ctx context.Context, c core.Couple) (core.Couple, error) {
	if err := c.Validate(); err != nil {
		return core.Couple{}, err
	}
	if c.ID == "" {
		c.ID = r.newID()
	}
	c.Currency = strings.ToUpper(c.Currency)
	if len(c.Categories) == 0 {
		c.Categories = append([]string(nil), r.categories...)
	}
	c.CreatedAt = r.now().UTC()
	row, err := coupleToRow(c)
	if err != nil {
		return core.Couple{}, fmt.Errorf("encode couple: %w", err)
	}
	if err := r.queries.InsertCouple(ctx, row); err != nil {
		return core.Couple{}, fmt.Errorf("insert couple: %w", err)
	}
	slog.InfoContext(ctx, "Couple saved to SQLite", "couple_id", c.ID)
	return c, nil
}

func (r *SQLiteRepository) GetCouple(ctx context.Context, id string) (core.Couple, error) {
	row, err := r.queries.GetCouple(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Couple{}, core.ErrNotFound
	}
	if err != nil {
		return core.Couple{}, fmt.Errorf("get couple: %w", err)
	}
	return coupleFromRow(row)
}

func (r *SQLiteRepository) ListCouples(ctx context.Context) ([]core.Couple, error) {
	rows, err := r.queries.ListCouples(ctx)
	if err != nil {
		return nil, fmt.Errorf("list couples: %w", err)
	}
	out := make([]core.Couple, 0, len(rows))
	for _, row := range rows {
		c, err := coupleFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// AppendExpenses inserts the batch in one transaction.
func (r *SQLiteRepository) AppendExpenses(ctx context.Context, coupleID string, es []core.Expense) ([]core.Expense, error) {
	now := r.now().UTC()
	out := make([]core.Expense, len(es))
	for i, e := range es {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("expense %d: %w", i, err)
		}
		e.ID = r.newID()
		e.CoupleID = coupleID
		e.YearMonth = e.Date.YearMonth()
		e.CreatedAt, e.UpdatedAt = now, now
		out[i] = e
	}

	err := r.inTx(ctx, func(q *Queries) error {
		ok, err := q.CoupleExists(ctx, coupleID)
		if err != nil {
			return fmt.Errorf("check couple: %w", err)
		}
		if !ok {
			return core.ErrNoHousehold
		}
		for _, e := range out {
			if err := q.InsertExpense(ctx, expenseToRow(e)); err != nil {
				return fmt.Errorf("insert expense: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Expenses saved to SQLite",
		"couple_id", coupleID,
		"count", len(out))
	return out, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, coupleID string) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx, coupleID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := expenseFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, coupleID, id string) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, coupleID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return expenseFromRow(row)
}

// UpdateExpense reads, patches and writes the record in one transaction.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, coupleID, id string, patch core.ExpensePatch) (core.Expense, error) {
	var updated core.Expense
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.GetExpense(ctx, coupleID, id)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get expense: %w", err)
		}
		current, err := expenseFromRow(row)
		if err != nil {
			return err
		}
		updated = patch.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}
		updated.UpdatedAt = r.now().UTC()
		if _, err := q.UpdateExpense(ctx, expenseToRow(updated)); err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}
	return updated, nil
}

func (r *SQLiteRepository) SoftDeleteExpense(ctx context.Context, coupleID, id string) error {
	n, err := r.queries.SoftDeleteExpense(ctx, coupleID, id, formatTime(r.now()))
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, coupleID, id string) error {
	n, err := r.queries.DeleteExpense(ctx, coupleID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Expense deleted from SQLite", "couple_id", coupleID, "id", id)
	return nil
}

func (r *SQLiteRepository) AppendIncome(ctx context.Context, coupleID string, in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	ok, err := r.queries.CoupleExists(ctx, coupleID)
	if err != nil {
		return core.Income{}, fmt.Errorf("check couple: %w", err)
	}
	if !ok {
		return core.Income{}, core.ErrNoHousehold
	}
	now := r.now().UTC()
	in.ID = r.newID()
	in.CoupleID = coupleID
	in.CreatedAt, in.UpdatedAt = now, now
	if err := r.queries.InsertIncome(ctx, incomeToRow(in)); err != nil {
		return core.Income{}, fmt.Errorf("insert income: %w", err)
	}
	return in, nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, coupleID string) ([]core.Income, error) {
	rows, err := r.queries.ListIncomes(ctx, coupleID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	out := make([]core.Income, 0, len(rows))
	for _, row := range rows {
		in, err := incomeFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, coupleID, id string, patch core.IncomePatch) (core.Income, error) {
	var updated core.Income
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.GetIncome(ctx, coupleID, id)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get income: %w", err)
		}
		current, err := incomeFromRow(row)
		if err != nil {
			return err
		}
		updated = patch.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}
		updated.UpdatedAt = r.now().UTC()
		if _, err := q.UpdateIncome(ctx, incomeToRow(updated)); err != nil {
			return fmt.Errorf("update income: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Income{}, err
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, coupleID, id string) error {
	n, err := r.queries.DeleteIncome(ctx, coupleID, id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) RecordCategoryUse(ctx context.Context, coupleID, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return core.ErrEmptyCategory
	}
	if err := r.queries.IncrementCategoryUse(ctx, coupleID, category); err != nil {
		return fmt.Errorf("record category use: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CategoryUsage(ctx context.Context, coupleID string) ([]store.CategoryCount, error) {
	rows, err := r.queries.ListCategoryUsage(ctx, coupleID)
	if err != nil {
		return nil, fmt.Errorf("category usage: %w", err)
	}
	out := make([]store.CategoryCount, len(rows))
	for i, row := range rows {
		out[i] = store.CategoryCount{Category: row.Category, Count: row.Uses}
	}
	return out, nil
}
