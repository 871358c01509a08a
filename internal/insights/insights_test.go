package insights

import (
	"strings"
	"testing"
	"time"

	"casal/internal/core"
)

var (
	june   = core.YearMonth{Year: 2024, Month: time.June}
	couple = core.Couple{ID: "c1", NameA: "Ana", NameB: "Bruno", Currency: "BRL"}
)

func kinds(tips []Tip) []Kind {
	out := make([]Kind, len(tips))
	for i, t := range tips {
		out[i] = t.Kind
	}
	return out
}

func has(tips []Tip, k Kind) bool {
	for _, t := range tips {
		if t.Kind == k {
			return true
		}
	}
	return false
}

func TestGenerateIncomeRules(t *testing.T) {
	tests := []struct {
		name string
		s    core.MonthSummary
		want Kind
		not  []Kind
	}{
		{"no income", core.MonthSummary{TotalOut: 100, Saved: -100}, KindNoIncome, []Kind{KindDeficit, KindSurplus}},
		{"deficit", core.MonthSummary{TotalIn: 100, TotalOut: 250, Saved: -150}, KindDeficit, []Kind{KindSurplus, KindNoIncome}},
		{"surplus", core.MonthSummary{TotalIn: 500, TotalOut: 200, Saved: 300}, KindSurplus, []Kind{KindDeficit}},
		{"break even is surplus", core.MonthSummary{TotalIn: 200, TotalOut: 200}, KindSurplus, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tips := Generate(tt.s, core.Comparison{}, couple)
			if len(tips) == 0 || tips[0].Kind != tt.want {
				t.Fatalf("first tip = %v, want %s", kinds(tips), tt.want)
			}
			for _, k := range tt.not {
				if has(tips, k) {
					t.Errorf("unexpected %s in %v", k, kinds(tips))
				}
			}
		})
	}
}

func TestGenerateDeficitMessageUsesCurrency(t *testing.T) {
	tips := Generate(core.MonthSummary{TotalIn: 100, TotalOut: 250, Saved: -150}, core.Comparison{}, couple)
	if !strings.Contains(tips[0].Message, "BRL 1.50") {
		t.Fatalf("message = %q", tips[0].Message)
	}
}

func TestGenerateDrift(t *testing.T) {
	s := core.MonthSummary{TotalIn: 1, TotalOut: 1}
	tests := []struct {
		name string
		c    core.Comparison
		want Kind
	}{
		{"up", core.Comparison{Months: 3, PriorAverage: 100, Drift: 0.2}, KindDriftUp},
		{"down", core.Comparison{Months: 3, PriorAverage: 100, Drift: -0.15}, KindDriftDown},
		{"below threshold", core.Comparison{Months: 3, PriorAverage: 100, Drift: 0.149}, ""},
		{"no history", core.Comparison{Drift: 0.9}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tips := Generate(s, tt.c, couple)
			up, down := has(tips, KindDriftUp), has(tips, KindDriftDown)
			switch tt.want {
			case KindDriftUp:
				if !up || down {
					t.Fatalf("tips = %v", kinds(tips))
				}
			case KindDriftDown:
				if !down || up {
					t.Fatalf("tips = %v", kinds(tips))
				}
			default:
				if up || down {
					t.Fatalf("unexpected drift tip: %v", kinds(tips))
				}
			}
		})
	}

	tips := Generate(s, core.Comparison{Months: 3, PriorAverage: 100, Drift: 0.204}, couple)
	for _, tip := range tips {
		if tip.Kind == KindDriftUp && !strings.Contains(tip.Message, "20%") {
			t.Fatalf("drift message = %q", tip.Message)
		}
	}
}

func TestGenerateRatioRules(t *testing.T) {
	rent := core.Expense{Title: "Rent", Amount: core.Money{Cents: 600}}
	s := core.MonthSummary{
		TotalIn:       2000,
		TotalOut:      1000,
		Saved:         1000,
		Fixed:         600,
		CardTotal:     500,
		PaidA:         650,
		PaidB:         350,
		Personal:      50,
		TopCategories: []core.CategoryAmount{{Name: "Housing", Amount: core.Money{Cents: 600}}},
		TopItem:       &rent,
	}
	tips := Generate(s, core.Comparison{}, couple)
	want := []Kind{KindSurplus, KindDominantCategory, KindLargeItem, KindCardHeavy, KindFixedHeavy, KindPersonal, KindImbalance}
	got := kinds(tips)
	if len(got) != len(want) {
		t.Fatalf("tips = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tips = %v, want %v", got, want)
		}
	}
	if !strings.Contains(tips[len(tips)-1].Message, "Ana") {
		t.Errorf("imbalance tip should name the bigger payer: %q", tips[len(tips)-1].Message)
	}
	if !strings.Contains(tips[1].Message, "60%") {
		t.Errorf("dominant category percentage: %q", tips[1].Message)
	}
}

func TestGenerateRatioRulesBelowThresholds(t *testing.T) {
	small := core.Expense{Title: "Coffee", Amount: core.Money{Cents: 240}}
	s := core.MonthSummary{
		TotalIn:       2000,
		TotalOut:      1000,
		Saved:         1000,
		Fixed:         599,
		CardTotal:     499,
		PaidA:         640,
		PaidB:         360,
		TopCategories: []core.CategoryAmount{{Name: "Food", Amount: core.Money{Cents: 299}}},
		TopItem:       &small,
	}
	tips := Generate(s, core.Comparison{}, couple)
	if len(tips) != 1 || tips[0].Kind != KindSurplus {
		t.Fatalf("tips = %v", kinds(tips))
	}
}

func TestGenerateZeroOutflow(t *testing.T) {
	s := core.Aggregate(nil, []core.Income{{Person: core.PartyA, Source: "x", Amount: core.Money{Cents: 100}, YearMonth: june}}, june)
	tips := Generate(s, core.Comparison{}, couple)
	if len(tips) != 1 || tips[0].Kind != KindSurplus {
		t.Fatalf("tips = %v", kinds(tips))
	}
}

func TestImbalanceNamesB(t *testing.T) {
	s := core.MonthSummary{TotalOut: 100, PaidA: 10, PaidB: 90}
	tips := Generate(s, core.Comparison{}, couple)
	last := tips[len(tips)-1]
	if last.Kind != KindImbalance || !strings.Contains(last.Message, "Bruno") {
		t.Fatalf("last tip = %+v", last)
	}
}
