package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"casal/internal/amqp"
	"casal/internal/core"
)

func seedBalance(t *testing.T, paidBy core.Party) (*SettlementService, *Session, *recordingPublisher, func() []core.Expense) {
	t.Helper()
	st, sess, pub := setup(t)
	d := draft()
	d.PaidBy = paidBy
	if _, err := NewExpenseService(st, pub).CreateExpense(context.Background(), sess, d); err != nil {
		t.Fatalf("seed: %v", err)
	}
	now := time.Date(2024, 6, 20, 10, 0, 0, 0, time.UTC)
	svc := NewSettlementService(st, pub).WithClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	})
	list := func() []core.Expense {
		all, _ := st.ListExpenses(context.Background(), sess.Couple.ID)
		return all
	}
	return svc, sess, pub, list
}

func settlements(expenses []core.Expense) []core.Expense {
	var out []core.Expense
	for _, e := range expenses {
		if e.IsSettlement() {
			out = append(out, e)
		}
	}
	return out
}

func TestSettleBalance(t *testing.T) {
	for _, payer := range []core.Party{core.PartyA, core.PartyB} {
		t.Run(string(payer), func(t *testing.T) {
			svc, sess, pub, list := seedBalance(t, payer)
			ctx := context.Background()

			res, err := svc.SettleBalance(ctx, sess, june)
			if err != nil {
				t.Fatalf("SettleBalance() error = %v", err)
			}
			if !res.Recorded || res.Settlement.Amount.Cents != 500 {
				t.Fatalf("result = %+v", res)
			}
			if res.Settlement.PaidBy != payer.Other() {
				t.Fatalf("settlement payer = %s, want debtor %s", res.Settlement.PaidBy, payer.Other())
			}
			if res.Settlement.YearMonth != june || res.Settlement.Category != core.SettlementCategory {
				t.Fatalf("settlement = %+v", res.Settlement)
			}
			if res.Balance.Outstanding != 0 {
				t.Fatalf("outstanding after settle = %d", res.Balance.Outstanding)
			}
			if got := core.NetBalance(list(), june); got == 0 {
				t.Fatalf("net balance must still ignore the settlement record")
			}
			if msg := pub.last(); msg.Op != amqp.OpSettled {
				t.Fatalf("published = %+v", msg)
			}

			again, err := svc.SettleBalance(ctx, sess, june)
			if err != nil || again.Recorded {
				t.Fatalf("second settle = %+v, %v", again, err)
			}
			if n := len(settlements(list())); n != 1 {
				t.Fatalf("settlement records = %d", n)
			}
		})
	}
}

func TestSettleBalanceNoop(t *testing.T) {
	st, sess, pub := setup(t)
	svc := NewSettlementService(st, pub)
	res, err := svc.SettleBalance(context.Background(), sess, june)
	if err != nil || res.Recorded || res.Balance.State != core.Balanced {
		t.Fatalf("settle on balanced month = %+v, %v", res, err)
	}
	if len(pub.msgs) != 0 {
		t.Fatalf("no-op must not publish")
	}
}

func TestSettlementRequiresHousehold(t *testing.T) {
	st, _, pub := setup(t)
	svc := NewSettlementService(st, pub)
	if _, err := svc.SettleBalance(context.Background(), nil, june); !errors.Is(err, core.ErrNoHousehold) {
		t.Fatalf("settle error = %v", err)
	}
	if _, err := svc.UndoSettlement(context.Background(), &Session{}, june); !errors.Is(err, core.ErrNoHousehold) {
		t.Fatalf("undo error = %v", err)
	}
}

func TestUndoSettlement(t *testing.T) {
	svc, sess, pub, list := seedBalance(t, core.PartyA)
	ctx := context.Background()

	none, err := svc.UndoSettlement(ctx, sess, june)
	if err != nil || none.Recorded {
		t.Fatalf("undo without settlement = %+v, %v", none, err)
	}

	first, _ := svc.SettleBalance(ctx, sess, june)
	res, err := svc.UndoSettlement(ctx, sess, june)
	if err != nil {
		t.Fatalf("UndoSettlement() error = %v", err)
	}
	if !res.Recorded || res.Settlement.ID != first.Settlement.ID {
		t.Fatalf("undo removed %q, want %q", res.Settlement.ID, first.Settlement.ID)
	}
	if res.Balance.Outstanding != 500 {
		t.Fatalf("outstanding after undo = %d", res.Balance.Outstanding)
	}
	if n := len(settlements(list())); n != 0 {
		t.Fatalf("settlement records left = %d", n)
	}
	if msg := pub.last(); msg.Op != amqp.OpSettlementUndone {
		t.Fatalf("published = %+v", msg)
	}
}

func TestUndoRemovesLatestOnly(t *testing.T) {
	svc, sess, _, list := seedBalance(t, core.PartyA)
	ctx := context.Background()
	st := svc.store

	// two partial payments recorded by hand
	for _, cents := range []int64{200, 300} {
		s, _ := core.NewSettlement(sess.Couple.ID, june, cents, svc.now())
		if _, err := st.AppendExpenses(ctx, sess.Couple.ID, []core.Expense{s}); err != nil {
			t.Fatalf("append settlement: %v", err)
		}
	}
	res, err := svc.UndoSettlement(ctx, sess, june)
	if err != nil {
		t.Fatalf("UndoSettlement() error = %v", err)
	}
	if res.Settlement.Amount.Cents != 300 {
		t.Fatalf("removed %d, want the latest (300)", res.Settlement.Amount.Cents)
	}
	left := settlements(list())
	if len(left) != 1 || left[0].Amount.Cents != 200 {
		t.Fatalf("left = %+v", left)
	}
}

func TestConcurrentSettleRecordsOnce(t *testing.T) {
	svc, sess, _, list := seedBalance(t, core.PartyB)

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		recorded int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.SettleBalance(context.Background(), sess, june)
			if err != nil {
				t.Errorf("SettleBalance() error = %v", err)
				return
			}
			if res.Recorded {
				mu.Lock()
				recorded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if recorded != 1 {
		t.Fatalf("%d callers reported a recorded settlement", recorded)
	}
	if n := len(settlements(list())); n != 1 {
		t.Fatalf("settlement records = %d", n)
	}
}
