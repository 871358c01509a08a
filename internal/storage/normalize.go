package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"casal/internal/core"
)

// currentSchemaVersion is stamped on every row written by this package.
// Rows below it are rewritten by UpgradeLegacyRows.
const currentSchemaVersion = 2

const timeLayout = time.RFC3339Nano

// normalizeExpense fills the fields older rows may lack: year-month comes
// from the date, a missing split is even and a missing payer is A.
func normalizeExpense(r expenseRow) expenseRow {
	if !r.YearMonth.Valid || r.YearMonth.String == "" {
		if d, err := core.ParseDate(r.Date); err == nil {
			r.YearMonth = sql.NullString{String: d.YearMonth().String(), Valid: true}
		}
	}
	if !r.SplitA.Valid || !r.SplitB.Valid {
		even := core.EvenSplit()
		r.SplitA = sql.NullInt64{Int64: even.A, Valid: true}
		r.SplitB = sql.NullInt64{Int64: even.B, Valid: true}
	}
	if r.PaidBy == "" {
		r.PaidBy = string(core.PartyA)
	}
	if r.UpdatedAt == "" {
		r.UpdatedAt = r.CreatedAt
	}
	return r
}

func expenseFromRow(r expenseRow) (core.Expense, error) {
	r = normalizeExpense(r)
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: %w", r.ID, err)
	}
	ym, err := core.ParseYearMonth(r.YearMonth.String)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: %w", r.ID, err)
	}
	return core.Expense{
		ID:                r.ID,
		CoupleID:          r.CoupleID,
		Title:             r.Title,
		Amount:            core.Money{Cents: r.AmountCents},
		Date:              date,
		YearMonth:         ym,
		Category:          r.Category,
		PaidBy:            core.Party(r.PaidBy),
		Split:             core.Split{A: r.SplitA.Int64, B: r.SplitB.Int64},
		IsFixed:           r.IsFixed,
		FixedKind:         core.FixedKind(r.FixedKind),
		IsCard:            r.IsCard,
		Installments:      int(r.Installments),
		InstallmentNumber: int(r.InstallmentNumber),
		GroupID:           r.GroupID,
		RuleKind:          core.RuleKind(r.RuleKind),
		Generated:         r.Generated,
		Deleted:           r.Deleted,
		CreatedAt:         parseTime(r.CreatedAt),
		UpdatedAt:         parseTime(r.UpdatedAt),
	}, nil
}

func expenseToRow(e core.Expense) expenseRow {
	return expenseRow{
		ID:                e.ID,
		CoupleID:          e.CoupleID,
		Title:             e.Title,
		AmountCents:       e.Amount.Cents,
		Date:              e.Date.String(),
		YearMonth:         sql.NullString{String: e.Date.YearMonth().String(), Valid: true},
		Category:          e.Category,
		PaidBy:            string(e.PaidBy),
		SplitA:            sql.NullInt64{Int64: e.Split.A, Valid: true},
		SplitB:            sql.NullInt64{Int64: e.Split.B, Valid: true},
		IsFixed:           e.IsFixed,
		FixedKind:         string(e.FixedKind),
		IsCard:            e.IsCard,
		Installments:      int64(e.Installments),
		InstallmentNumber: int64(e.InstallmentNumber),
		GroupID:           e.GroupID,
		RuleKind:          string(e.RuleKind),
		Generated:         e.Generated,
		Deleted:           e.Deleted,
		SchemaVersion:     currentSchemaVersion,
		CreatedAt:         formatTime(e.CreatedAt),
		UpdatedAt:         formatTime(e.UpdatedAt),
	}
}

func incomeFromRow(r incomeRow) (core.Income, error) {
	ym, err := core.ParseYearMonth(r.YearMonth)
	if err != nil {
		return core.Income{}, fmt.Errorf("income %s: %w", r.ID, err)
	}
	return core.Income{
		ID:        r.ID,
		CoupleID:  r.CoupleID,
		Person:    core.Party(r.Person),
		Source:    r.Source,
		Amount:    core.Money{Cents: r.AmountCents},
		YearMonth: ym,
		CreatedAt: parseTime(r.CreatedAt),
		UpdatedAt: parseTime(r.UpdatedAt),
	}, nil
}

func incomeToRow(in core.Income) incomeRow {
	return incomeRow{
		ID:          in.ID,
		CoupleID:    in.CoupleID,
		Person:      string(in.Person),
		Source:      in.Source,
		AmountCents: in.Amount.Cents,
		YearMonth:   in.YearMonth.String(),
		CreatedAt:   formatTime(in.CreatedAt),
		UpdatedAt:   formatTime(in.UpdatedAt),
	}
}

func coupleFromRow(r coupleRow) (core.Couple, error) {
	var cats []string
	if r.Categories != "" {
		if err := json.Unmarshal([]byte(r.Categories), &cats); err != nil {
			return core.Couple{}, fmt.Errorf("couple %s categories: %w", r.ID, err)
		}
	}
	return core.Couple{
		ID:         r.ID,
		NameA:      r.NameA,
		NameB:      r.NameB,
		Currency:   r.Currency,
		Categories: cats,
		CreatedAt:  parseTime(r.CreatedAt),
	}, nil
}

func coupleToRow(c core.Couple) (coupleRow, error) {
	cats := c.Categories
	if cats == nil {
		cats = []string{}
	}
	b, err := json.Marshal(cats)
	if err != nil {
		return coupleRow{}, err
	}
	return coupleRow{
		ID:         c.ID,
		NameA:      c.NameA,
		NameB:      c.NameB,
		Currency:   c.Currency,
		Categories: string(b),
		CreatedAt:  formatTime(c.CreatedAt),
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
