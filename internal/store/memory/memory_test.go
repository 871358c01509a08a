package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"casal/internal/core"
)

func newCouple(t *testing.T, s *Store) core.Couple {
	t.Helper()
	c, err := s.CreateCouple(context.Background(), core.Couple{NameA: "Ana", NameB: "Bruno", Currency: "brl"})
	if err != nil {
		t.Fatalf("create couple: %v", err)
	}
	return c
}

func expense(title string, cents int64, d core.Date) core.Expense {
	return core.Expense{Title: title, Amount: core.Money{Cents: cents}, Date: d, Category: "Groceries", PaidBy: core.PartyA, Split: core.EvenSplit()}
}

func TestCreateCoupleSeedsCategories(t *testing.T) {
	s := New([]string{"A", "B", "A", " "})
	c := newCouple(t, s)
	if c.ID == "" || c.Currency != "BRL" {
		t.Fatalf("unexpected couple: %+v", c)
	}
	if len(c.Categories) != 2 {
		t.Fatalf("categories = %v", c.Categories)
	}
	got, err := s.GetCouple(context.Background(), c.ID)
	if err != nil || got.NameB != "Bruno" {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if _, err := s.GetCouple(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendExpensesIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	c := newCouple(t, s)

	bad := expense("", 100, core.NewDate(2024, 6, 1))
	_, err := s.AppendExpenses(ctx, c.ID, []core.Expense{expense("ok", 100, core.NewDate(2024, 6, 1)), bad})
	if !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if got, _ := s.ListExpenses(ctx, c.ID); len(got) != 0 {
		t.Fatalf("partial batch stored: %d records", len(got))
	}

	saved, err := s.AppendExpenses(ctx, c.ID, []core.Expense{
		expense("a", 100, core.NewDate(2024, 6, 9)),
		expense("b", 200, core.NewDate(2024, 7, 1)),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if saved[0].ID == "" || saved[0].ID == saved[1].ID || saved[1].YearMonth.String() != "2024-07" {
		t.Fatalf("unexpected records: %+v", saved)
	}

	if _, err := s.AppendExpenses(ctx, "nobody", saved); !errors.Is(err, core.ErrNoHousehold) {
		t.Fatalf("expected ErrNoHousehold, got %v", err)
	}
}

func TestUpdateExpenseMovesYearMonth(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := New(nil).WithClock(func() time.Time { return clock })
	c := newCouple(t, s)
	saved, _ := s.AppendExpenses(ctx, c.ID, []core.Expense{expense("a", 100, core.NewDate(2024, 6, 9))})

	clock = clock.Add(time.Hour)
	d := core.NewDate(2024, 9, 2)
	updated, err := s.UpdateExpense(ctx, c.ID, saved[0].ID, core.ExpensePatch{Date: &d})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.YearMonth.String() != "2024-09" || !updated.UpdatedAt.Equal(clock) {
		t.Fatalf("updated = %+v", updated)
	}

	negative := int64(-1)
	if _, err := s.UpdateExpense(ctx, c.ID, saved[0].ID, core.ExpensePatch{Amount: &negative}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := s.UpdateExpense(ctx, c.ID, "missing", core.ExpensePatch{}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSoftAndHardDelete(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	c := newCouple(t, s)
	saved, _ := s.AppendExpenses(ctx, c.ID, []core.Expense{
		expense("a", 100, core.NewDate(2024, 6, 9)),
		expense("b", 100, core.NewDate(2024, 6, 9)),
	})

	if err := s.SoftDeleteExpense(ctx, c.ID, saved[0].ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := s.DeleteExpense(ctx, c.ID, saved[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	all, _ := s.ListExpenses(ctx, c.ID)
	if len(all) != 1 || !all[0].Deleted {
		t.Fatalf("remaining = %+v", all)
	}
	if err := s.DeleteExpense(ctx, c.ID, saved[1].ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIncomes(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	c := newCouple(t, s)
	ym := core.YearMonth{Year: 2024, Month: time.June}

	if _, err := s.AppendIncome(ctx, c.ID, core.Income{Person: core.PartyA, Source: "Salary", YearMonth: ym}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	in, err := s.AppendIncome(ctx, c.ID, core.Income{Person: core.PartyA, Source: "Salary", Amount: core.Money{Cents: 100}, YearMonth: ym})
	if err != nil {
		t.Fatalf("append income: %v", err)
	}
	amount := int64(250)
	updated, err := s.UpdateIncome(ctx, c.ID, in.ID, core.IncomePatch{Amount: &amount})
	if err != nil || updated.Amount.Cents != 250 {
		t.Fatalf("update income = %+v, %v", updated, err)
	}
	if err := s.DeleteIncome(ctx, c.ID, in.ID); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	if all, _ := s.ListIncomes(ctx, c.ID); len(all) != 0 {
		t.Fatalf("incomes left: %v", all)
	}
}

func TestCategoryUsage(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	for _, cat := range []string{"Food", "Rent", "Food", "Bar", "Food", "Rent"} {
		if err := s.RecordCategoryUse(ctx, "c1", cat); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	usage, _ := s.CategoryUsage(ctx, "c1")
	if len(usage) != 3 || usage[0].Category != "Food" || usage[0].Count != 3 || usage[2].Category != "Bar" {
		t.Fatalf("usage = %+v", usage)
	}
	if err := s.RecordCategoryUse(ctx, "c1", " "); err == nil {
		t.Fatalf("expected error for blank category")
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	// No file -> defaults
	s := NewFromFiles(dir)
	if c := newCouple(t, s); len(c.Categories) != len(core.DefaultCategories) {
		t.Fatalf("expected defaults when file missing, got %v", c.Categories)
	}

	content := "# header\nFood\nRent\nFood\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	c := newCouple(t, s)
	if len(c.Categories) != 2 || c.Categories[0] != "Food" || c.Categories[1] != "Rent" {
		t.Fatalf("unexpected categories: %v", c.Categories)
	}
}
