package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"casal/internal/amqp"
	"casal/internal/core"
	"casal/internal/services"
	"casal/internal/sheets"
)

const (
	// DefaultResyncWindow is how many months, counting the current one,
	// a full resync re-exports per couple.
	DefaultResyncWindow = 2
	resyncConcurrency   = 4
)

// SyncWorker mirrors household months to a spreadsheet whenever the ledger
// changes.
type SyncWorker struct {
	store    services.SessionReader
	exporter sheets.MonthExporter
	window   int
	now      func() time.Time
}

func NewSyncWorker(store services.SessionReader, exporter sheets.MonthExporter, window int) *SyncWorker {
	if window <= 0 {
		window = DefaultResyncWindow
	}
	return &SyncWorker{store: store, exporter: exporter, window: window, now: time.Now}
}

// WithClock replaces the time source that picks the resync window.
func (w *SyncWorker) WithClock(now func() time.Time) *SyncWorker {
	w.now = now
	return w
}

// HandleLedgerChange re-exports every month named by msg. A message naming
// no months re-exports every month the couple has records in.
func (w *SyncWorker) HandleLedgerChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"couple_id", msg.CoupleID,
		"op", msg.Op,
		"months", len(msg.Months))

	sess, err := services.LoadSession(ctx, w.store, msg.CoupleID)
	if errors.Is(err, core.ErrNoHousehold) {
		// The couple is gone; redelivery cannot help.
		slog.WarnContext(ctx, "Dropping ledger change for unknown couple", "couple_id", msg.CoupleID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	months := msg.Months
	if len(months) == 0 {
		months = recordedMonths(sess)
	}
	return w.exportMonths(ctx, sess, months)
}

// ResyncAll re-exports the recent months of every couple. Failures are
// collected so one broken couple does not stop the others.
func (w *SyncWorker) ResyncAll(ctx context.Context) error {
	couples, err := w.store.ListCouples(ctx)
	if err != nil {
		return fmt.Errorf("list couples: %w", err)
	}
	current := core.CurrentYearMonth(w.now())
	months := append([]core.YearMonth{current}, current.Preceding(w.window-1)...)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resyncConcurrency)
	errs := make([]error, len(couples))
	for i, c := range couples {
		g.Go(func() error {
			sess, err := services.LoadSession(gctx, w.store, c.ID)
			if err != nil {
				errs[i] = fmt.Errorf("couple %s: %w", c.ID, err)
				return nil
			}
			if err := w.exportMonths(gctx, sess, months); err != nil {
				errs[i] = fmt.Errorf("couple %s: %w", c.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	err = errors.Join(errs...)
	slog.InfoContext(ctx, "Resync completed",
		"couples", len(couples),
		"months", len(months),
		"failed", err != nil)
	return err
}

func (w *SyncWorker) exportMonths(ctx context.Context, sess *services.Session, months []core.YearMonth) error {
	for _, ym := range months {
		if err := ctx.Err(); err != nil {
			return err
		}
		report := sess.Report(ym)
		sheet := sheets.MonthSheet{
			Couple:    sess.Couple,
			YearMonth: ym,
			Expenses:  sheets.MonthExpenses(sess.Expenses, ym),
			Summary:   report.Summary,
			Balance:   report.Balance,
			Tips:      report.Tips,
		}
		if err := w.exporter.ExportMonth(ctx, sheet); err != nil {
			return fmt.Errorf("export %s: %w", ym, err)
		}
	}
	return nil
}

// recordedMonths lists the months holding any live record, oldest first.
func recordedMonths(sess *services.Session) []core.YearMonth {
	seen := make(map[core.YearMonth]bool)
	var out []core.YearMonth
	add := func(ym core.YearMonth) {
		if !seen[ym] {
			seen[ym] = true
			out = append(out, ym)
		}
	}
	for _, e := range sess.Expenses {
		if !e.Deleted {
			add(e.YearMonth)
		}
	}
	for _, in := range sess.Incomes {
		add(in.YearMonth)
	}
	slices.SortFunc(out, func(a, b core.YearMonth) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	return out
}
