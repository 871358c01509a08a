package sheets

import (
	"context"
	"fmt"

	"casal/internal/core"
	"casal/internal/insights"
)

// MonthSheet is one month of a household as mirrored to a spreadsheet tab.
type MonthSheet struct {
	Couple    core.Couple
	YearMonth core.YearMonth
	Expenses  []core.Expense // live records of the month, settlements included
	Summary   core.MonthSummary
	Balance   core.BalanceStatus
	Tips      []insights.Tip
}

// Ports for outbound adapters.
type (
	// MonthExporter replaces the tab of a month with a fresh snapshot.
	MonthExporter interface {
		ExportMonth(ctx context.Context, m MonthSheet) error
	}
)

// TabName is the spreadsheet tab holding a couple's month.
func TabName(coupleID string, ym core.YearMonth) string {
	return fmt.Sprintf("%s %s", coupleID, ym)
}

// MonthExpenses keeps the live records dated in ym, in stored order.
func MonthExpenses(expenses []core.Expense, ym core.YearMonth) []core.Expense {
	var out []core.Expense
	for _, e := range expenses {
		if !e.Deleted && e.YearMonth == ym {
			out = append(out, e)
		}
	}
	return out
}
