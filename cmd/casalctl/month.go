package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"casal/internal/core"
	"casal/internal/services"
)

// monthCmd builds a command that runs against the selected couple and month.
func monthCmd(st *state, use, short string, run func(cmd *cobra.Command, sess *services.Session, ym core.YearMonth) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ym, err := st.yearMonth()
			if err != nil {
				return fmt.Errorf("--month: %w", err)
			}
			sess, err := st.session(cmd)
			if err != nil {
				return err
			}
			return run(cmd, sess, ym)
		},
	}
}

func summaryCmd(st *state) *cobra.Command {
	return monthCmd(st, "summary", "Show the month's totals, top categories and comparison",
		func(cmd *cobra.Command, sess *services.Session, ym core.YearMonth) error {
			return printSummary(cmd.OutOrStdout(), sess.Couple, sess.Report(ym))
		})
}

func balanceCmd(st *state) *cobra.Command {
	return monthCmd(st, "balance", "Show who owes whom for the month",
		func(cmd *cobra.Command, sess *services.Session, ym core.YearMonth) error {
			fmt.Fprintln(cmd.OutOrStdout(), balanceLine(sess.Couple, core.Balance(sess.Expenses, ym)))
			return nil
		})
}

func settleCmd(st *state) *cobra.Command {
	return monthCmd(st, "settle", "Record a settlement for whatever is outstanding",
		func(cmd *cobra.Command, sess *services.Session, ym core.YearMonth) error {
			res, err := st.app.settle.SettleBalance(cmd.Context(), sess, ym)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !res.Recorded {
				fmt.Fprintf(out, "Nothing to settle for %s\n", ym)
				return nil
			}
			fmt.Fprintf(out, "Recorded settlement %s of %s\n", res.Settlement.ID,
				core.FormatCents(res.Settlement.Amount.Cents, sess.Couple.Currency))
			fmt.Fprintln(out, balanceLine(sess.Couple, res.Balance))
			return nil
		})
}

func undoSettleCmd(st *state) *cobra.Command {
	return monthCmd(st, "undo-settle", "Remove the month's latest settlement",
		func(cmd *cobra.Command, sess *services.Session, ym core.YearMonth) error {
			res, err := st.app.settle.UndoSettlement(cmd.Context(), sess, ym)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !res.Recorded {
				fmt.Fprintf(out, "No settlement to undo for %s\n", ym)
				return nil
			}
			fmt.Fprintf(out, "Removed settlement %s\n", res.Settlement.ID)
			fmt.Fprintln(out, balanceLine(sess.Couple, res.Balance))
			return nil
		})
}

func insightsCmd(st *state) *cobra.Command {
	return monthCmd(st, "insights", "Show spending tips for the month",
		func(cmd *cobra.Command, sess *services.Session, ym core.YearMonth) error {
			out := cmd.OutOrStdout()
			tips := sess.Report(ym).Tips
			if len(tips) == 0 {
				fmt.Fprintln(out, "No tips this month")
				return nil
			}
			for _, tip := range tips {
				fmt.Fprintf(out, "- [%s] %s\n", tip.Kind, tip.Message)
			}
			return nil
		})
}

func balanceLine(c core.Couple, b core.BalanceStatus) string {
	if b.State != core.Owed {
		return "All settled up"
	}
	return fmt.Sprintf("%s owes %s %s", c.Name(b.Debtor), c.Name(b.Creditor), core.FormatCents(b.Amount, c.Currency))
}

func printSummary(out io.Writer, c core.Couple, rep services.MonthReport) error {
	s := rep.Summary
	money := func(cents int64) string { return core.FormatCents(cents, c.Currency) }

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Month\t%s\n", s.YearMonth)
	fmt.Fprintf(w, "Income\t%s\n", money(s.TotalIn))
	fmt.Fprintf(w, "Spent\t%s\n", money(s.TotalOut))
	fmt.Fprintf(w, "Saved\t%s\n", money(s.Saved))
	fmt.Fprintf(w, "Fixed / variable\t%s / %s\n", money(s.Fixed), money(s.Variable))
	fmt.Fprintf(w, "Card\t%s\n", money(s.CardTotal))
	fmt.Fprintf(w, "Paid by %s\t%s\n", c.NameA, money(s.PaidA))
	fmt.Fprintf(w, "Paid by %s\t%s\n", c.NameB, money(s.PaidB))
	if rep.Comparison.PriorAverage > 0 {
		fmt.Fprintf(w, "vs last %d months\t%+.1f%% (avg %s)\n",
			rep.Comparison.Months, rep.Comparison.Drift*100, money(rep.Comparison.PriorAverage))
	}
	fmt.Fprintf(w, "Balance\t%s\n", balanceLine(c, rep.Balance))
	if len(s.TopCategories) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Top categories\t")
		for _, cat := range s.TopCategories {
			fmt.Fprintf(w, "  %s\t%s\n", cat.Name, money(cat.Amount.Cents))
		}
	}
	if s.TopItem != nil {
		fmt.Fprintf(w, "Biggest expense\t%s (%s)\n", s.TopItem.Title, money(s.TopItem.Amount.Cents))
	}
	return w.Flush()
}
