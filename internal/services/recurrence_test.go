package services

import (
	"errors"
	"testing"

	"casal/internal/core"
)

func fixedGroupID() func() string {
	n := 0
	return func() string {
		n++
		return "group-" + string(rune('0'+n))
	}
}

func draft() ExpenseDraft {
	return ExpenseDraft{
		Title:    "Sofa",
		Amount:   1000,
		Date:     core.NewDate(2024, 6, 17),
		Category: "Housing",
		PaidBy:   core.PartyA,
		Split:    core.EvenSplit(),
	}
}

func TestSelectExpansion(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ExpenseDraft)
		want   core.RuleKind
	}{
		{"plain", func(*ExpenseDraft) {}, ""},
		{"card with installments", func(d *ExpenseDraft) { d.IsCard, d.Installments = true, 3 }, core.RuleInstallments},
		{"card single installment", func(d *ExpenseDraft) { d.IsCard, d.Installments = true, 1 }, ""},
		{"fixed", func(d *ExpenseDraft) { d.IsFixed = true }, core.RuleFixed},
		{"installments win over fixed", func(d *ExpenseDraft) { d.IsCard, d.Installments, d.IsFixed = true, 2, true }, core.RuleInstallments},
		{"installments without card", func(d *ExpenseDraft) { d.Installments = 5 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := draft()
			tt.mutate(&d)
			if got := SelectExpansion(d).RuleKind(); got != tt.want {
				t.Errorf("SelectExpansion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstallmentExpansion(t *testing.T) {
	d := draft()
	d.IsCard, d.Installments = true, 3
	d.IsFixed, d.FixedKind = true, core.FixedRent

	out := NewExpander(fixedGroupID()).Expand(d)
	if len(out) != 3 {
		t.Fatalf("got %d occurrences", len(out))
	}

	wantAmounts := []int64{334, 333, 333}
	wantMonths := []string{"2024-06", "2024-07", "2024-08"}
	wantDates := []string{"2024-06-17", "2024-07-01", "2024-08-01"}
	var sum int64
	for i, e := range out {
		sum += e.Amount.Cents
		if e.Amount.Cents != wantAmounts[i] {
			t.Errorf("occurrence %d amount = %d, want %d", i, e.Amount.Cents, wantAmounts[i])
		}
		if e.YearMonth.String() != wantMonths[i] || e.Date.String() != wantDates[i] {
			t.Errorf("occurrence %d at %s/%s", i, e.YearMonth, e.Date)
		}
		if e.Date.YearMonth() != e.YearMonth {
			t.Errorf("occurrence %d date and year-month disagree", i)
		}
		if e.GroupID != "group-1" || e.RuleKind != core.RuleInstallments {
			t.Errorf("occurrence %d linkage = %q/%q", i, e.GroupID, e.RuleKind)
		}
		if e.InstallmentNumber != i+1 || e.Installments != 3 || !e.IsCard {
			t.Errorf("occurrence %d installment fields = %d/%d card=%v", i, e.InstallmentNumber, e.Installments, e.IsCard)
		}
		if e.IsFixed || e.FixedKind != "" {
			t.Errorf("occurrence %d should not be fixed", i)
		}
		if e.Generated != (i > 0) {
			t.Errorf("occurrence %d generated = %v", i, e.Generated)
		}
	}
	if sum != 1000 {
		t.Fatalf("parts sum to %d", sum)
	}
}

func TestInstallmentsAcrossYearEnd(t *testing.T) {
	d := draft()
	d.Date = core.NewDate(2024, 11, 30)
	d.IsCard, d.Installments, d.Amount = true, 4, 1003
	out := NewExpander(nil).Expand(d)
	if out[3].YearMonth.String() != "2025-02" {
		t.Fatalf("last month = %s", out[3].YearMonth)
	}
	if out[0].GroupID == "" || out[0].GroupID != out[3].GroupID {
		t.Fatalf("group ids = %q/%q", out[0].GroupID, out[3].GroupID)
	}
	if out[0].Amount.Cents != 251 || out[2].Amount.Cents != 251 || out[3].Amount.Cents != 250 {
		t.Fatalf("amounts = %d %d %d %d", out[0].Amount.Cents, out[1].Amount.Cents, out[2].Amount.Cents, out[3].Amount.Cents)
	}
}

func TestFixedExpansion(t *testing.T) {
	tests := []struct {
		start core.Date
		want  int
	}{
		{core.NewDate(2024, 6, 5), 7},
		{core.NewDate(2024, 12, 20), 1},
		{core.NewDate(2024, 1, 31), 12},
	}
	for _, tt := range tests {
		d := draft()
		d.Date = tt.start
		d.IsFixed, d.FixedKind, d.IsCard = true, core.FixedInternet, true
		out := NewExpander(fixedGroupID()).Expand(d)
		if len(out) != tt.want {
			t.Fatalf("start %s: got %d occurrences, want %d", tt.start, len(out), tt.want)
		}
		last := out[len(out)-1]
		if last.YearMonth.String() != "2024-12" {
			t.Errorf("start %s: last month %s", tt.start, last.YearMonth)
		}
		for i, e := range out {
			if e.Amount.Cents != 1000 || !e.IsFixed || e.IsCard || e.FixedKind != core.FixedInternet {
				t.Errorf("occurrence %d = %+v", i, e)
			}
			if e.RuleKind != core.RuleFixed || e.GroupID != "group-1" || e.Generated != (i > 0) {
				t.Errorf("occurrence %d linkage = %+v", i, e)
			}
		}
		if !out[0].Date.Equal(tt.start.Time) {
			t.Errorf("first occurrence keeps the entered date, got %s", out[0].Date)
		}
	}
}

func TestSingleEntry(t *testing.T) {
	called := false
	x := NewExpander(func() string { called = true; return "g" })

	d := draft()
	d.IsCard, d.Installments = true, 0
	out := x.Expand(d)
	if len(out) != 1 || out[0].GroupID != "" || out[0].RuleKind != "" {
		t.Fatalf("single = %+v", out)
	}
	if !out[0].IsCard || out[0].Installments != 1 || out[0].Generated {
		t.Fatalf("single card fields = %+v", out[0])
	}
	if called {
		t.Fatalf("group id generated for a single record")
	}

	d = draft()
	d.Installments, d.FixedKind = 6, core.FixedWater
	out = x.Expand(d)
	if out[0].Installments != 1 || out[0].FixedKind != "" {
		t.Fatalf("plain record = %+v", out[0])
	}
}

func TestExpenseDraftValidate(t *testing.T) {
	d := draft()
	if err := d.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	d.Title = " "
	if err := d.Validate(); !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("got %v", err)
	}
	d = draft()
	d.Amount = -5
	if err := d.Validate(); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("got %v", err)
	}
	d = draft()
	d.PaidBy = ""
	if err := d.Validate(); !errors.Is(err, core.ErrInvalidParty) {
		t.Fatalf("got %v", err)
	}
}
