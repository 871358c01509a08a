package main

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"casal/internal/core"
	"casal/internal/services"
)

// state carries the opened app and the global flags to subcommands.
type state struct {
	app      *app
	coupleID string
	month    string
	logLevel string
	now      func() time.Time
}

// month resolves --month, defaulting to the current month.
func (s *state) yearMonth() (core.YearMonth, error) {
	if s.month == "" {
		return core.CurrentYearMonth(s.now()), nil
	}
	return core.ParseYearMonth(s.month)
}

// session loads the couple named by --couple or CASAL_COUPLE.
func (s *state) session(cmd *cobra.Command) (*services.Session, error) {
	id := strings.TrimSpace(s.coupleID)
	if id == "" {
		return nil, errors.New("no couple selected: pass --couple or set CASAL_COUPLE")
	}
	return services.LoadSession(cmd.Context(), s.app.store, id)
}

func newRootCmd(open opener) *cobra.Command {
	st := &state{now: time.Now}

	root := &cobra.Command{
		Use:   "casalctl",
		Short: "Shared expenses, balances and settlements for a couple",
		Long: `casalctl records a couple's shared expenses and incomes, shows the
monthly summary and who owes whom, and records settlements.

The couple is picked with --couple or the CASAL_COUPLE environment variable.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd.Context(), st.logLevel)
			if err != nil {
				return err
			}
			st.app = a
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if st.app == nil || st.app.closeFn == nil {
				return nil
			}
			return st.app.closeFn()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&st.coupleID, "couple", os.Getenv("CASAL_COUPLE"), "couple id")
	flags.StringVar(&st.month, "month", "", "month as YYYY-MM (default: current month)")
	flags.StringVar(&st.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(couplesCmd(st))
	root.AddCommand(expenseCmd(st))
	root.AddCommand(incomeCmd(st))
	root.AddCommand(summaryCmd(st))
	root.AddCommand(balanceCmd(st))
	root.AddCommand(settleCmd(st))
	root.AddCommand(undoSettleCmd(st))
	root.AddCommand(insightsCmd(st))
	return root
}
