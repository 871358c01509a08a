package core

import (
	"math"
	"testing"
	"time"
)

var june = YearMonth{Year: 2024, Month: time.June}

func exp(title string, cents int64, ym YearMonth, category string, paidBy Party) Expense {
	return Expense{
		Title:     title,
		Amount:    Money{Cents: cents},
		Date:      ym.FirstDay(),
		YearMonth: ym,
		Category:  category,
		PaidBy:    paidBy,
		Split:     EvenSplit(),
	}
}

func inc(person Party, cents int64, ym YearMonth) Income {
	return Income{Person: person, Source: "Salary", Amount: Money{Cents: cents}, YearMonth: ym}
}

func TestAggregateBasicTotals(t *testing.T) {
	expenses := []Expense{
		exp("Market", 500, june, "Groceries", PartyA),
		exp("Bus", 300, june, "Transport", PartyB),
	}
	incomes := []Income{inc(PartyA, 1000, june)}

	s := Aggregate(expenses, incomes, june)
	if s.TotalOut != 800 || s.TotalIn != 1000 || s.Saved != 200 {
		t.Fatalf("totals = out %d in %d saved %d", s.TotalOut, s.TotalIn, s.Saved)
	}
	if s.PaidA != 500 || s.PaidB != 300 {
		t.Fatalf("paid = %d/%d", s.PaidA, s.PaidB)
	}
	if s.Variable != 800 || s.Fixed != 0 {
		t.Fatalf("fixed/variable = %d/%d", s.Fixed, s.Variable)
	}
	if s.TopItem == nil || s.TopItem.Title != "Market" {
		t.Fatalf("top item = %+v", s.TopItem)
	}
}

func TestAggregateFiltersAndBuckets(t *testing.T) {
	fixed := exp("Rent", 2000, june, "Housing", PartyA)
	fixed.IsFixed = true
	card := exp("Phone", 600, june, "Tech", PartyB)
	card.IsCard = true
	personal := exp("Haircut", 100, june, "Care", PartyB)
	personal.Split = Split{}
	deleted := exp("Ghost", 9999, june, "Housing", PartyA)
	deleted.Deleted = true
	otherMonth := exp("July", 700, june.AddMonths(1), "Housing", PartyA)
	settlement := exp("Settlement", 450, june, SettlementCategory, PartyB)

	s := Aggregate([]Expense{fixed, card, personal, deleted, otherMonth, settlement}, nil, june)
	if s.TotalOut != 2700 {
		t.Fatalf("totalOut = %d", s.TotalOut)
	}
	if s.Fixed != 2000 || s.Variable != 700 {
		t.Fatalf("fixed/variable = %d/%d", s.Fixed, s.Variable)
	}
	if s.CardTotal != 600 || s.Personal != 100 {
		t.Fatalf("card/personal = %d/%d", s.CardTotal, s.Personal)
	}
	if s.Saved != -2700 {
		t.Fatalf("saved = %d", s.Saved)
	}
}

func TestSliceMonthExcludesSettlements(t *testing.T) {
	now := time.Date(2024, time.June, 20, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name        string
		outstanding int64
	}{
		{"B owes A", 2500},
		{"A owes B", -2500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settlement, ok := NewSettlement("c1", june, tc.outstanding, now)
			if !ok || settlement.YearMonth != june {
				t.Fatalf("NewSettlement() = %+v, %v", settlement, ok)
			}
			expenses := []Expense{
				exp("Market", 800, june, "Groceries", PartyA),
				settlement,
				exp("Bus", 200, june, "Transport", PartyB),
			}

			slice := SliceMonth(expenses, nil, june)
			if len(slice.Expenses) != 2 {
				t.Fatalf("sliced %d expenses, want 2", len(slice.Expenses))
			}
			for _, e := range slice.Expenses {
				if e.IsSettlement() {
					t.Fatalf("settlement %+v kept in month slice", e)
				}
			}

			s := Summarize(slice)
			if s.TotalOut != 1000 || s.PaidA != 800 || s.PaidB != 200 {
				t.Errorf("out %d paid %d/%d, want 1000 800/200", s.TotalOut, s.PaidA, s.PaidB)
			}
			if s.TopItem == nil || s.TopItem.Title != "Market" {
				t.Errorf("top item = %+v", s.TopItem)
			}
			for _, c := range s.TopCategories {
				if c.Name == SettlementCategory {
					t.Errorf("top categories include %q", c.Name)
				}
			}
		})
	}
}

func TestAggregateTopCategoriesStable(t *testing.T) {
	var expenses []Expense
	for _, c := range []struct {
		cat    string
		amount int64
	}{
		{"a", 100}, {"b", 300}, {"c", 100}, {"d", 200}, {"e", 100}, {"f", 50}, {"b", 0},
	} {
		expenses = append(expenses, exp(c.cat, c.amount, june, c.cat, PartyA))
	}
	s := Aggregate(expenses, nil, june)
	want := []string{"b", "d", "a", "c", "e"}
	if len(s.TopCategories) != len(want) {
		t.Fatalf("got %d categories", len(s.TopCategories))
	}
	for i, name := range want {
		if s.TopCategories[i].Name != name {
			t.Fatalf("position %d = %s, want %s (%+v)", i, s.TopCategories[i].Name, name, s.TopCategories)
		}
	}
}

func TestAggregateTopItemFirstOnTie(t *testing.T) {
	s := Aggregate([]Expense{
		exp("first", 500, june, "x", PartyA),
		exp("second", 500, june, "y", PartyB),
	}, nil, june)
	if s.TopItem.Title != "first" {
		t.Fatalf("top item = %s", s.TopItem.Title)
	}
	if empty := Aggregate(nil, nil, june); empty.TopItem != nil || len(empty.TopCategories) != 0 {
		t.Fatalf("empty month = %+v", empty)
	}
}

func TestCompare(t *testing.T) {
	expenses := []Expense{
		exp("now", 1300, june, "x", PartyA),
		exp("may", 1000, june.AddMonths(-1), "x", PartyA),
		exp("apr", 1000, june.AddMonths(-2), "x", PartyA),
		exp("mar", 1000, june.AddMonths(-3), "x", PartyA),
		exp("feb", 9000, june.AddMonths(-4), "x", PartyA),
	}
	current := Aggregate(expenses, nil, june)
	history := History(expenses, nil, june, HistoryMonths)
	c := Compare(current, history)
	if c.Months != 3 || c.PriorAverage != 1000 {
		t.Fatalf("comparison = %+v", c)
	}
	if math.Abs(c.Drift-0.3) > 1e-9 {
		t.Fatalf("drift = %v", c.Drift)
	}
}

func TestCompareWithoutHistory(t *testing.T) {
	current := Aggregate([]Expense{exp("now", 1300, june, "x", PartyA)}, nil, june)
	if c := Compare(current, nil); c.Drift != 0 || c.Months != 0 {
		t.Fatalf("comparison = %+v", c)
	}
	empty := History(nil, nil, june, HistoryMonths)
	if c := Compare(current, empty); c.Drift != 0 || c.PriorAverage != 0 {
		t.Fatalf("comparison over empty months = %+v", c)
	}
}

func TestShare(t *testing.T) {
	if _, ok := Share(1, 0); ok {
		t.Fatalf("zero whole must not produce a share")
	}
	if r, ok := Share(1, 4); !ok || r != 0.25 {
		t.Fatalf("Share(1,4) = %v %v", r, ok)
	}
}
