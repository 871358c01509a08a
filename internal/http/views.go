package http

import (
	"time"

	"casal/internal/core"
	"casal/internal/insights"
	"casal/internal/services"
)

type coupleView struct {
	ID         string    `json:"id"`
	NameA      string    `json:"name_a"`
	NameB      string    `json:"name_b"`
	Currency   string    `json:"currency"`
	Categories []string  `json:"categories"`
	CreatedAt  time.Time `json:"created_at"`
}

func newCoupleView(c core.Couple, categories []string) coupleView {
	if categories == nil {
		categories = []string{}
	}
	return coupleView{
		ID:         c.ID,
		NameA:      c.NameA,
		NameB:      c.NameB,
		Currency:   c.Currency,
		Categories: categories,
		CreatedAt:  c.CreatedAt,
	}
}

type expenseView struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	AmountCents       int64      `json:"amount_cents"`
	Amount            string     `json:"amount"`
	Date              string     `json:"date"`
	YearMonth         string     `json:"year_month"`
	Category          string     `json:"category"`
	PaidBy            core.Party `json:"paid_by"`
	Split             core.Split `json:"split"`
	IsFixed           bool       `json:"is_fixed"`
	FixedKind         string     `json:"fixed_kind,omitempty"`
	IsCard            bool       `json:"is_card"`
	Installments      int        `json:"installments,omitempty"`
	InstallmentNumber int        `json:"installment_number,omitempty"`
	GroupID           string     `json:"group_id,omitempty"`
	RuleKind          string     `json:"rule_kind,omitempty"`
	Generated         bool       `json:"generated"`
	Settlement        bool       `json:"settlement"`
	Deleted           bool       `json:"deleted,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func newExpenseView(e core.Expense) expenseView {
	return expenseView{
		ID:                e.ID,
		Title:             e.Title,
		AmountCents:       e.Amount.Cents,
		Amount:            core.FormatCents(e.Amount.Cents, ""),
		Date:              e.Date.String(),
		YearMonth:         e.YearMonth.String(),
		Category:          e.Category,
		PaidBy:            e.PaidBy,
		Split:             e.Split,
		IsFixed:           e.IsFixed,
		FixedKind:         string(e.FixedKind),
		IsCard:            e.IsCard,
		Installments:      e.Installments,
		InstallmentNumber: e.InstallmentNumber,
		GroupID:           e.GroupID,
		RuleKind:          string(e.RuleKind),
		Generated:         e.Generated,
		Settlement:        e.IsSettlement(),
		Deleted:           e.Deleted,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func newExpenseViews(es []core.Expense) []expenseView {
	out := make([]expenseView, 0, len(es))
	for _, e := range es {
		out = append(out, newExpenseView(e))
	}
	return out
}

type incomeView struct {
	ID          string     `json:"id"`
	Person      core.Party `json:"person"`
	Source      string     `json:"source"`
	AmountCents int64      `json:"amount_cents"`
	Amount      string     `json:"amount"`
	YearMonth   string     `json:"year_month"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newIncomeView(in core.Income) incomeView {
	return incomeView{
		ID:          in.ID,
		Person:      in.Person,
		Source:      in.Source,
		AmountCents: in.Amount.Cents,
		Amount:      core.FormatCents(in.Amount.Cents, ""),
		YearMonth:   in.YearMonth.String(),
		CreatedAt:   in.CreatedAt,
		UpdatedAt:   in.UpdatedAt,
	}
}

type categoryView struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
}

type summaryView struct {
	TotalInCents  int64          `json:"total_in_cents"`
	TotalOutCents int64          `json:"total_out_cents"`
	SavedCents    int64          `json:"saved_cents"`
	FixedCents    int64          `json:"fixed_cents"`
	VariableCents int64          `json:"variable_cents"`
	CardCents     int64          `json:"card_cents"`
	PaidACents    int64          `json:"paid_a_cents"`
	PaidBCents    int64          `json:"paid_b_cents"`
	PersonalCents int64          `json:"personal_cents"`
	TopCategories []categoryView `json:"top_categories"`
	TopItem       *expenseView   `json:"top_item,omitempty"`
}

type comparisonView struct {
	Months            int     `json:"months"`
	PriorAverageCents int64   `json:"prior_average_cents"`
	Drift             float64 `json:"drift"`
}

type balanceView struct {
	YearMonth        string     `json:"year_month"`
	State            string     `json:"state"`
	NetCents         int64      `json:"net_cents"`
	SettledCents     int64      `json:"settled_cents"`
	OutstandingCents int64      `json:"outstanding_cents"`
	Debtor           core.Party `json:"debtor,omitempty"`
	Creditor         core.Party `json:"creditor,omitempty"`
	AmountCents      int64      `json:"amount_cents"`
	Message          string     `json:"message"`
}

func newBalanceView(c core.Couple, b core.BalanceStatus) balanceView {
	v := balanceView{
		YearMonth:        b.YearMonth.String(),
		State:            string(b.State),
		NetCents:         b.Net,
		SettledCents:     b.Settled,
		OutstandingCents: b.Outstanding,
		AmountCents:      b.Amount,
		Message:          "All settled up",
	}
	if b.State == core.Owed {
		v.Debtor, v.Creditor = b.Debtor, b.Creditor
		v.Message = c.Name(b.Debtor) + " owes " + c.Name(b.Creditor) + " " + core.FormatCents(b.Amount, c.Currency)
	}
	return v
}

type monthReportView struct {
	CoupleID   string         `json:"couple_id"`
	YearMonth  string         `json:"year_month"`
	Currency   string         `json:"currency"`
	Summary    summaryView    `json:"summary"`
	Comparison comparisonView `json:"comparison"`
	Balance    balanceView    `json:"balance"`
	Tips       []insights.Tip `json:"tips"`
}

func newMonthReportView(ym core.YearMonth, rep services.MonthReport) monthReportView {
	s := rep.Summary
	cats := make([]categoryView, 0, len(s.TopCategories))
	for _, c := range s.TopCategories {
		cats = append(cats, categoryView{Name: c.Name, AmountCents: c.Amount.Cents})
	}
	var top *expenseView
	if s.TopItem != nil {
		v := newExpenseView(*s.TopItem)
		top = &v
	}
	tips := rep.Tips
	if tips == nil {
		tips = []insights.Tip{}
	}
	return monthReportView{
		CoupleID:  rep.Couple.ID,
		YearMonth: ym.String(),
		Currency:  rep.Couple.Currency,
		Summary: summaryView{
			TotalInCents:  s.TotalIn,
			TotalOutCents: s.TotalOut,
			SavedCents:    s.Saved,
			FixedCents:    s.Fixed,
			VariableCents: s.Variable,
			CardCents:     s.CardTotal,
			PaidACents:    s.PaidA,
			PaidBCents:    s.PaidB,
			PersonalCents: s.Personal,
			TopCategories: cats,
			TopItem:       top,
		},
		Comparison: comparisonView{
			Months:            rep.Comparison.Months,
			PriorAverageCents: rep.Comparison.PriorAverage,
			Drift:             rep.Comparison.Drift,
		},
		Balance: newBalanceView(rep.Couple, rep.Balance),
		Tips:    tips,
	}
}

type settlementView struct {
	Recorded   bool         `json:"recorded"`
	Settlement *expenseView `json:"settlement,omitempty"`
	Balance    balanceView  `json:"balance"`
}

func newSettlementView(c core.Couple, res services.SettlementResult) settlementView {
	v := settlementView{Recorded: res.Recorded, Balance: newBalanceView(c, res.Balance)}
	if res.Recorded {
		e := newExpenseView(res.Settlement)
		v.Settlement = &e
	}
	return v
}
