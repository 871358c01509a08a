package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"casal/internal/core"
	"casal/internal/services"
)

func expenseCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Record and list expenses",
	}
	cmd.AddCommand(expenseAddCmd(st), expenseListCmd(st))
	return cmd
}

func expenseAddCmd(st *state) *cobra.Command {
	var (
		d                 services.ExpenseDraft
		amount, date      string
		paidBy, fixedKind string
		splitA, splitB    int64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense, expanding installments and fixed bills",
		Example: `  casalctl expense add --title Rent --amount 1.200,00 --category Housing --paid-by A --fixed --fixed-kind rent
  casalctl expense add --title TV --amount 900 --category Home --paid-by B --card --installments 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := st.session(cmd)
			if err != nil {
				return err
			}
			if date == "" {
				d.Date = core.DateOf(st.now())
			} else if d.Date, err = core.ParseDate(date); err != nil {
				return fmt.Errorf("--date: %w", err)
			}
			d.Amount = core.ParseAmount(amount)
			d.PaidBy = core.Party(paidBy)
			d.FixedKind = core.FixedKind(fixedKind)
			d.Split = core.Split{A: splitA, B: splitB}

			saved, err := st.app.expenses.CreateExpense(cmd.Context(), sess, d)
			if err != nil {
				return err
			}
			return printExpenses(cmd, sess.Couple, saved)
		},
	}
	f := cmd.Flags()
	f.StringVar(&d.Title, "title", "", "what was bought")
	f.StringVar(&amount, "amount", "", `amount as typed, e.g. "1.234,50"`)
	f.StringVar(&date, "date", "", "date as YYYY-MM-DD (default: today)")
	f.StringVar(&d.Category, "category", "", "expense category")
	f.StringVar(&paidBy, "paid-by", "", "who paid: A or B")
	f.Int64Var(&splitA, "split-a", 1, "A's weight in the split")
	f.Int64Var(&splitB, "split-b", 1, "B's weight in the split")
	f.BoolVar(&d.IsFixed, "fixed", false, "repeat every month until December")
	f.StringVar(&fixedKind, "fixed-kind", "", "water, power, internet, rent or other")
	f.BoolVar(&d.IsCard, "card", false, "paid by card")
	f.IntVar(&d.Installments, "installments", 0, "spread a card purchase over this many months")
	for _, name := range []string{"title", "amount", "category", "paid-by"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func expenseListCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the month's expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := st.session(cmd)
			if err != nil {
				return err
			}
			ym, err := st.yearMonth()
			if err != nil {
				return err
			}
			var month []core.Expense
			for _, e := range sess.Expenses {
				if e.YearMonth == ym && !e.Deleted {
					month = append(month, e)
				}
			}
			return printExpenses(cmd, sess.Couple, month)
		},
	}
}

func printExpenses(cmd *cobra.Command, c core.Couple, es []core.Expense) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTITLE\tCATEGORY\tAMOUNT\tPAID BY\tINSTALLMENT")
	for _, e := range es {
		installment := ""
		if e.InstallmentNumber > 0 {
			installment = fmt.Sprintf("%d/%d", e.InstallmentNumber, e.Installments)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Date, e.Title, e.Category,
			core.FormatCents(e.Amount.Cents, c.Currency), c.Name(e.PaidBy), installment)
	}
	return w.Flush()
}

func incomeCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "income",
		Short: "Record incomes",
	}
	cmd.AddCommand(incomeAddCmd(st))
	return cmd
}

func incomeAddCmd(st *state) *cobra.Command {
	var person, source, amount string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income for --month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := st.session(cmd)
			if err != nil {
				return err
			}
			ym, err := st.yearMonth()
			if err != nil {
				return err
			}
			in, err := st.app.incomes.AddIncome(cmd.Context(), sess, core.Income{
				Person:    core.Party(person),
				Source:    source,
				Amount:    core.Money{Cents: core.ParseAmount(amount)},
				YearMonth: ym,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s %s %s\n", in.ID, sess.Couple.Name(in.Person), in.Source,
				core.FormatCents(in.Amount.Cents, sess.Couple.Currency))
			return nil
		},
	}
	cmd.Flags().StringVar(&person, "person", "", "who earned it: A or B")
	cmd.Flags().StringVar(&source, "source", "", "where it came from")
	cmd.Flags().StringVar(&amount, "amount", "", `amount as typed, e.g. "3.000,00"`)
	for _, name := range []string{"person", "source", "amount"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
