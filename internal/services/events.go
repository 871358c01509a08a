package services

import (
	"context"
	"log/slog"

	"casal/internal/amqp"
	"casal/internal/core"
)

// ChangePublisher announces ledger writes to downstream consumers.
// *amqp.Client satisfies it.
type ChangePublisher interface {
	PublishLedgerChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error
}

// publishChange never fails the caller: the write it describes is already stored.
func publishChange(ctx context.Context, pub ChangePublisher, coupleID string, op amqp.LedgerOp, months []core.YearMonth, ids ...string) {
	if pub == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping ledger change", "op", op)
		return
	}
	msg := amqp.NewLedgerChangeMessage(coupleID, op, months, ids...)
	if err := pub.PublishLedgerChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"couple_id", coupleID, "op", op, "error", err)
	}
}
