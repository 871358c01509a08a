package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const expenseColumns = `id, couple_id, title, amount_cents, date, year_month, category, paid_by,
	split_a, split_b, is_fixed, fixed_kind, is_card, installments, installment_number,
	group_id, rule_kind, generated, deleted, schema_version, created_at, updated_at`

// expenseRow mirrors the expenses table, nullable columns included.
type expenseRow struct {
	ID                string
	CoupleID          string
	Title             string
	AmountCents       int64
	Date              string
	YearMonth         sql.NullString
	Category          string
	PaidBy            string
	SplitA            sql.NullInt64
	SplitB            sql.NullInt64
	IsFixed           bool
	FixedKind         string
	IsCard            bool
	Installments      int64
	InstallmentNumber int64
	GroupID           string
	RuleKind          string
	Generated         bool
	Deleted           bool
	SchemaVersion     int64
	CreatedAt         string
	UpdatedAt         string
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (expenseRow, error) {
	var r expenseRow
	err := s.Scan(&r.ID, &r.CoupleID, &r.Title, &r.AmountCents, &r.Date, &r.YearMonth, &r.Category, &r.PaidBy,
		&r.SplitA, &r.SplitB, &r.IsFixed, &r.FixedKind, &r.IsCard, &r.Installments, &r.InstallmentNumber,
		&r.GroupID, &r.RuleKind, &r.Generated, &r.Deleted, &r.SchemaVersion, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (q *Queries) InsertExpense(ctx context.Context, r expenseRow) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CoupleID, r.Title, r.AmountCents, r.Date, r.YearMonth, r.Category, r.PaidBy,
		r.SplitA, r.SplitB, r.IsFixed, r.FixedKind, r.IsCard, r.Installments, r.InstallmentNumber,
		r.GroupID, r.RuleKind, r.Generated, r.Deleted, r.SchemaVersion, r.CreatedAt, r.UpdatedAt)
	return err
}

// UpdateExpense rewrites every mutable column of the row with the same id.
func (q *Queries) UpdateExpense(ctx context.Context, r expenseRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE expenses SET
		title = ?, amount_cents = ?, date = ?, year_month = ?, category = ?, paid_by = ?,
		split_a = ?, split_b = ?, is_fixed = ?, fixed_kind = ?, is_card = ?, deleted = ?,
		schema_version = ?, updated_at = ?
		WHERE id = ? AND couple_id = ?`,
		r.Title, r.AmountCents, r.Date, r.YearMonth, r.Category, r.PaidBy,
		r.SplitA, r.SplitB, r.IsFixed, r.FixedKind, r.IsCard, r.Deleted,
		r.SchemaVersion, r.UpdatedAt, r.ID, r.CoupleID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) GetExpense(ctx context.Context, coupleID, id string) (expenseRow, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE couple_id = ? AND id = ?`, coupleID, id)
	return scanExpense(row)
}

func (q *Queries) ListExpenses(ctx context.Context, coupleID string) ([]expenseRow, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses
		WHERE couple_id = ? ORDER BY date, created_at, id`, coupleID)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

// ListLegacyExpenses returns rows written under an older schema version.
func (q *Queries) ListLegacyExpenses(ctx context.Context, version int64) ([]expenseRow, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE schema_version < ?`, version)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

func collectExpenses(rows *sql.Rows) ([]expenseRow, error) {
	defer rows.Close()
	var out []expenseRow
	for rows.Next() {
		r, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) SoftDeleteExpense(ctx context.Context, coupleID, id, updatedAt string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE expenses SET deleted = 1, updated_at = ? WHERE couple_id = ? AND id = ?`,
		updatedAt, coupleID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteExpense(ctx context.Context, coupleID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE couple_id = ? AND id = ?`, coupleID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type incomeRow struct {
	ID          string
	CoupleID    string
	Person      string
	Source      string
	AmountCents int64
	YearMonth   string
	CreatedAt   string
	UpdatedAt   string
}

const incomeColumns = `id, couple_id, person, source, amount_cents, year_month, created_at, updated_at`

func scanIncome(s scanner) (incomeRow, error) {
	var r incomeRow
	err := s.Scan(&r.ID, &r.CoupleID, &r.Person, &r.Source, &r.AmountCents, &r.YearMonth, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (q *Queries) InsertIncome(ctx context.Context, r incomeRow) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO incomes (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CoupleID, r.Person, r.Source, r.AmountCents, r.YearMonth, r.CreatedAt, r.UpdatedAt)
	return err
}

func (q *Queries) GetIncome(ctx context.Context, coupleID, id string) (incomeRow, error) {
	return scanIncome(q.db.QueryRowContext(ctx, `SELECT `+incomeColumns+` FROM incomes WHERE couple_id = ? AND id = ?`, coupleID, id))
}

func (q *Queries) ListIncomes(ctx context.Context, coupleID string) ([]incomeRow, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+incomeColumns+` FROM incomes WHERE couple_id = ? ORDER BY year_month, created_at, id`, coupleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []incomeRow
	for rows.Next() {
		r, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateIncome(ctx context.Context, r incomeRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE incomes SET person = ?, source = ?, amount_cents = ?, year_month = ?, updated_at = ?
		WHERE couple_id = ? AND id = ?`, r.Person, r.Source, r.AmountCents, r.YearMonth, r.UpdatedAt, r.CoupleID, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteIncome(ctx context.Context, coupleID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM incomes WHERE couple_id = ? AND id = ?`, coupleID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type coupleRow struct {
	ID         string
	NameA      string
	NameB      string
	Currency   string
	Categories string
	CreatedAt  string
}

const coupleColumns = `id, name_a, name_b, currency, categories, created_at`

func scanCouple(s scanner) (coupleRow, error) {
	var r coupleRow
	err := s.Scan(&r.ID, &r.NameA, &r.NameB, &r.Currency, &r.Categories, &r.CreatedAt)
	return r, err
}

func (q *Queries) InsertCouple(ctx context.Context, r coupleRow) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO couples (`+coupleColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.NameA, r.NameB, r.Currency, r.Categories, r.CreatedAt)
	return err
}

func (q *Queries) GetCouple(ctx context.Context, id string) (coupleRow, error) {
	return scanCouple(q.db.QueryRowContext(ctx, `SELECT `+coupleColumns+` FROM couples WHERE id = ?`, id))
}

func (q *Queries) ListCouples(ctx context.Context) ([]coupleRow, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+coupleColumns+` FROM couples ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []coupleRow
	for rows.Next() {
		r, err := scanCouple(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) CoupleExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM couples WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

func (q *Queries) IncrementCategoryUse(ctx context.Context, coupleID, category string) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO category_usage (couple_id, category, uses) VALUES (?, ?, 1)
		ON CONFLICT (couple_id, category) DO UPDATE SET uses = uses + 1`, coupleID, category)
	return err
}

type categoryUseRow struct {
	Category string
	Uses     int
}

func (q *Queries) ListCategoryUsage(ctx context.Context, coupleID string) ([]categoryUseRow, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT category, uses FROM category_usage
		WHERE couple_id = ? ORDER BY uses DESC, category`, coupleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []categoryUseRow
	for rows.Next() {
		var r categoryUseRow
		if err := rows.Scan(&r.Category, &r.Uses); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
