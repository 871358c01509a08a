package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"casal/internal/amqp"
	"casal/internal/core"
	"casal/internal/sheets"
	sheetsmem "casal/internal/sheets/memory"
	"casal/internal/store/memory"
)

var june = core.NewYearMonth(2024, time.June)

func seed(t *testing.T) (*memory.Store, core.Couple) {
	t.Helper()
	ctx := context.Background()
	st := memory.New(nil)
	c, err := st.CreateCouple(ctx, core.Couple{NameA: "Ana", NameB: "Bruno", Currency: "EUR"})
	if err != nil {
		t.Fatalf("create couple: %v", err)
	}
	_, err = st.AppendExpenses(ctx, c.ID, []core.Expense{
		{Title: "Rent", Amount: core.Money{Cents: 100000}, Date: core.NewDate(2024, 6, 1), Category: "Housing", PaidBy: core.PartyA, Split: core.EvenSplit()},
		{Title: "Old", Amount: core.Money{Cents: 500}, Date: core.NewDate(2024, 4, 3), Category: "Groceries", PaidBy: core.PartyB, Split: core.EvenSplit()},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := st.AppendIncome(ctx, c.ID, core.Income{Person: core.PartyB, Source: "Salary", Amount: core.Money{Cents: 300000}, YearMonth: june.AddMonths(1)}); err != nil {
		t.Fatalf("append income: %v", err)
	}
	return st, c
}

func TestHandleLedgerChangeExportsNamedMonths(t *testing.T) {
	st, c := seed(t)
	exp := sheetsmem.New()
	w := NewSyncWorker(st, exp, 0)

	msg := amqp.NewLedgerChangeMessage(c.ID, amqp.OpExpenseCreated, []core.YearMonth{june})
	if err := w.HandleLedgerChange(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	tab, ok := exp.Tab(sheets.TabName(c.ID, june))
	if !ok {
		t.Fatalf("tab missing, have %v", exp.Tabs())
	}
	if tab.Summary.TotalOut != 100000 || len(tab.Expenses) != 1 {
		t.Fatalf("tab = %+v", tab)
	}
	if tab.Balance.State != core.Owed || tab.Balance.Debtor != core.PartyB || tab.Balance.Amount != 50000 {
		t.Fatalf("balance = %+v", tab.Balance)
	}
	if exp.Exports() != 1 {
		t.Fatalf("exports = %d", exp.Exports())
	}
}

func TestHandleLedgerChangeWithoutMonths(t *testing.T) {
	st, c := seed(t)
	exp := sheetsmem.New()
	w := NewSyncWorker(st, exp, 0)

	if err := w.HandleLedgerChange(context.Background(), amqp.NewLedgerChangeMessage(c.ID, amqp.OpResync, nil)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	want := []string{c.ID + " 2024-04", c.ID + " 2024-06", c.ID + " 2024-07"}
	got := exp.Tabs()
	if len(got) != len(want) {
		t.Fatalf("tabs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tabs = %v, want %v", got, want)
		}
	}
}

func TestHandleLedgerChangeUnknownCouple(t *testing.T) {
	st, _ := seed(t)
	exp := sheetsmem.New()
	w := NewSyncWorker(st, exp, 0)
	if err := w.HandleLedgerChange(context.Background(), amqp.NewLedgerChangeMessage("ghost", amqp.OpSettled, []core.YearMonth{june})); err != nil {
		t.Fatalf("unknown couple should be dropped, got %v", err)
	}
	if exp.Exports() != 0 {
		t.Fatalf("exports = %d", exp.Exports())
	}
}

type failingExporter struct{ err error }

func (f failingExporter) ExportMonth(context.Context, sheets.MonthSheet) error { return f.err }

func TestHandleLedgerChangeExportError(t *testing.T) {
	st, c := seed(t)
	boom := errors.New("quota exceeded")
	w := NewSyncWorker(st, failingExporter{err: boom}, 0)
	err := w.HandleLedgerChange(context.Background(), amqp.NewLedgerChangeMessage(c.ID, amqp.OpExpenseUpdated, []core.YearMonth{june}))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestResyncAll(t *testing.T) {
	st, c := seed(t)
	other, err := st.CreateCouple(context.Background(), core.Couple{NameA: "X", NameB: "Y", Currency: "USD"})
	if err != nil {
		t.Fatalf("create couple: %v", err)
	}
	exp := sheetsmem.New()
	w := NewSyncWorker(st, exp, 3).WithClock(func() time.Time {
		return time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	})

	if err := w.ResyncAll(context.Background()); err != nil {
		t.Fatalf("resync: %v", err)
	}
	if exp.Exports() != 6 {
		t.Fatalf("exports = %d, want 6", exp.Exports())
	}
	for _, id := range []string{c.ID, other.ID} {
		for _, ym := range []string{"2024-05", "2024-06", "2024-07"} {
			if _, ok := exp.Tab(id + " " + ym); !ok {
				t.Errorf("missing tab %s %s", id, ym)
			}
		}
	}
}

func TestResyncAllCollectsFailures(t *testing.T) {
	st, _ := seed(t)
	boom := errors.New("down")
	w := NewSyncWorker(st, failingExporter{err: boom}, 1)
	if err := w.ResyncAll(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
