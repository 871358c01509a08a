package amqp

import (
	"encoding/json"
	"errors"
	"slices"
	"time"

	"casal/internal/core"
)

// LedgerOp names the write that produced a change message.
type LedgerOp string

const (
	OpExpenseCreated   LedgerOp = "expense.created"
	OpExpenseUpdated   LedgerOp = "expense.updated"
	OpExpenseDeleted   LedgerOp = "expense.deleted"
	OpIncomeChanged    LedgerOp = "income.changed"
	OpSettled          LedgerOp = "settlement.recorded"
	OpSettlementUndone LedgerOp = "settlement.undone"
	OpResync           LedgerOp = "resync"
)

var errMissingCouple = errors.New("ledger change without couple id")

// LedgerChangeMessage tells consumers which months of a couple changed.
// It carries ids only; consumers reload the records they need.
type LedgerChangeMessage struct {
	CoupleID  string           `json:"couple_id"`
	Op        LedgerOp         `json:"op"`
	Months    []core.YearMonth `json:"months"`
	RecordIDs []string         `json:"record_ids,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewLedgerChangeMessage builds a message with months deduplicated and sorted.
func NewLedgerChangeMessage(coupleID string, op LedgerOp, months []core.YearMonth, ids ...string) *LedgerChangeMessage {
	uniq := make([]core.YearMonth, 0, len(months))
	for _, m := range months {
		if !slices.Contains(uniq, m) {
			uniq = append(uniq, m)
		}
	}
	slices.SortFunc(uniq, func(a, b core.YearMonth) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	return &LedgerChangeMessage{
		CoupleID:  coupleID,
		Op:        op,
		Months:    uniq,
		RecordIDs: ids,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON decodes and checks a message body.
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.CoupleID == "" {
		return nil, errMissingCouple
	}
	return &msg, nil
}
