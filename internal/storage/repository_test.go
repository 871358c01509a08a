package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"casal/internal/core"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "casal.db")
	repo, err := NewSQLiteRepository(path, []string{"Groceries", "Housing"})
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func mustCouple(t *testing.T, repo *SQLiteRepository) core.Couple {
	t.Helper()
	c, err := repo.CreateCouple(context.Background(), core.Couple{NameA: "Ana", NameB: "Bruno", Currency: "brl"})
	if err != nil {
		t.Fatalf("create couple: %v", err)
	}
	return c
}

func TestCoupleRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	c := mustCouple(t, repo)

	if c.Currency != "BRL" {
		t.Errorf("currency = %q, want BRL", c.Currency)
	}
	got, err := repo.GetCouple(ctx, c.ID)
	if err != nil {
		t.Fatalf("get couple: %v", err)
	}
	if got.NameA != "Ana" || len(got.Categories) != 2 || got.Categories[1] != "Housing" {
		t.Fatalf("got %+v", got)
	}
	if _, err := repo.GetCouple(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing couple err = %v", err)
	}
	all, err := repo.ListCouples(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("list couples = %v, %v", all, err)
	}
}

func TestAppendExpensesIsAtomic(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	c := mustCouple(t, repo)

	good := core.Expense{
		Title: "Rent", Amount: core.Money{Cents: 100000}, Date: core.NewDate(2024, 6, 5),
		Category: "Housing", PaidBy: core.PartyA, Split: core.EvenSplit(),
	}
	bad := good
	bad.Title = ""
	if _, err := repo.AppendExpenses(ctx, c.ID, []core.Expense{good, bad}); !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("err = %v, want ErrEmptyTitle", err)
	}
	list, _ := repo.ListExpenses(ctx, c.ID)
	if len(list) != 0 {
		t.Fatalf("partial batch stored: %d rows", len(list))
	}

	if _, err := repo.AppendExpenses(ctx, "nobody", []core.Expense{good}); !errors.Is(err, core.ErrNoHousehold) {
		t.Fatalf("unknown couple err = %v", err)
	}

	saved, err := repo.AppendExpenses(ctx, c.ID, []core.Expense{good, good})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(saved) != 2 || saved[0].ID == "" || saved[0].ID == saved[1].ID {
		t.Fatalf("ids not assigned: %+v", saved)
	}
	got, err := repo.GetExpense(ctx, c.ID, saved[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.YearMonth != core.NewYearMonth(2024, time.June) || got.Split != core.EvenSplit() || got.Amount.Cents != 100000 {
		t.Fatalf("got %+v", got)
	}
}

func TestUpdateExpenseMovesMonth(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	c := mustCouple(t, repo)
	saved, err := repo.AppendExpenses(ctx, c.ID, []core.Expense{{
		Title: "Internet", Amount: core.Money{Cents: 9990}, Date: core.NewDate(2024, 6, 10),
		Category: "Utilities", PaidBy: core.PartyB, Split: core.Split{A: 2, B: 1},
		IsFixed: true, FixedKind: core.FixedInternet,
	}})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	date := core.NewDate(2024, 7, 1)
	notFixed := false
	updated, err := repo.UpdateExpense(ctx, c.ID, saved[0].ID, core.ExpensePatch{Date: &date, IsFixed: &notFixed})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.YearMonth != core.NewYearMonth(2024, time.July) || updated.FixedKind != "" {
		t.Fatalf("updated = %+v", updated)
	}
	got, _ := repo.GetExpense(ctx, c.ID, saved[0].ID)
	if got.YearMonth != updated.YearMonth || got.Split != (core.Split{A: 2, B: 1}) {
		t.Fatalf("stored = %+v", got)
	}

	if _, err := repo.UpdateExpense(ctx, c.ID, "nope", core.ExpensePatch{}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing update err = %v", err)
	}
}

func TestDeleteExpense(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	c := mustCouple(t, repo)
	saved, _ := repo.AppendExpenses(ctx, c.ID, []core.Expense{{
		Title: "Market", Amount: core.Money{Cents: 500}, Date: core.NewDate(2024, 6, 1),
		Category: "Groceries", PaidBy: core.PartyA, Split: core.EvenSplit(),
	}})
	id := saved[0].ID

	if err := repo.SoftDeleteExpense(ctx, c.ID, id); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	got, _ := repo.GetExpense(ctx, c.ID, id)
	if !got.Deleted {
		t.Fatal("expected deleted flag")
	}
	if err := repo.DeleteExpense(ctx, c.ID, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteExpense(ctx, c.ID, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestIncomeLifecycle(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	c := mustCouple(t, repo)
	june := core.NewYearMonth(2024, time.June)

	in, err := repo.AppendIncome(ctx, c.ID, core.Income{Person: core.PartyA, Source: "Salary", Amount: core.Money{Cents: 500000}, YearMonth: june})
	if err != nil {
		t.Fatalf("append income: %v", err)
	}
	amount := int64(450000)
	updated, err := repo.UpdateIncome(ctx, c.ID, in.ID, core.IncomePatch{Amount: &amount})
	if err != nil {
		t.Fatalf("update income: %v", err)
	}
	if updated.Amount.Cents != amount {
		t.Fatalf("amount = %d", updated.Amount.Cents)
	}
	list, _ := repo.ListIncomes(ctx, c.ID)
	if len(list) != 1 || list[0].YearMonth != june || list[0].Amount.Cents != amount {
		t.Fatalf("list = %+v", list)
	}
	if err := repo.DeleteIncome(ctx, c.ID, in.ID); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	if err := repo.DeleteIncome(ctx, c.ID, in.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestCategoryUsage(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	c := mustCouple(t, repo)
	for _, cat := range []string{"Housing", "Groceries", "Housing"} {
		if err := repo.RecordCategoryUse(ctx, c.ID, cat); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	usage, err := repo.CategoryUsage(ctx, c.ID)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if len(usage) != 2 || usage[0].Category != "Housing" || usage[0].Count != 2 {
		t.Fatalf("usage = %+v", usage)
	}
	if err := repo.RecordCategoryUse(ctx, c.ID, "  "); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("blank category err = %v", err)
	}
}

func TestUpgradeLegacyRows(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()
	c := mustCouple(t, repo)

	_, err := repo.db.ExecContext(ctx, `INSERT INTO expenses
		(id, couple_id, title, amount_cents, date, category, paid_by, schema_version, created_at, updated_at)
		VALUES ('old-1', ?, 'Old', 1000, '2023-11-20', 'Groceries', '', 1, ?, '')`,
		c.ID, formatTime(time.Date(2023, 11, 20, 9, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	// Reads normalize before the upgrade has run.
	got, err := repo.GetExpense(ctx, c.ID, "old-1")
	if err != nil {
		t.Fatalf("get legacy: %v", err)
	}
	if got.YearMonth != core.NewYearMonth(2023, time.November) || got.Split != core.EvenSplit() || got.PaidBy != core.PartyA {
		t.Fatalf("normalized = %+v", got)
	}

	n, err := repo.UpgradeLegacyRows(ctx)
	if err != nil || n != 1 {
		t.Fatalf("upgrade = %d, %v", n, err)
	}
	var ym sql.NullString
	var version int
	if err := repo.db.QueryRowContext(ctx, `SELECT year_month, schema_version FROM expenses WHERE id = 'old-1'`).Scan(&ym, &version); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if ym.String != "2023-11" || version != currentSchemaVersion {
		t.Fatalf("stored year_month=%v version=%d", ym, version)
	}
	if n, _ := repo.UpgradeLegacyRows(ctx); n != 0 {
		t.Fatalf("second upgrade touched %d rows", n)
	}

	v, dirty, err := schemaVersion(path)
	if err != nil || dirty || v != 1 {
		t.Fatalf("schema version = %d dirty=%v err=%v", v, dirty, err)
	}
}
