// Package http serves the household ledger as a JSON API.
//
// This file holds the request DTOs and the helpers that decode, validate
// and convert them into domain values.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"casal/internal/core"
	"casal/internal/services"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed input, as opposed to well-formed input that
// fails validation.
var errBadRequest = errors.New("bad request")

type createCoupleRequest struct {
	NameA      string   `json:"name_a" validate:"required,max=80"`
	NameB      string   `json:"name_b" validate:"required,max=80"`
	Currency   string   `json:"currency" validate:"required,iso4217"`
	Categories []string `json:"categories" validate:"omitempty,max=100,dive,required,max=60"`
}

func (r createCoupleRequest) toCouple() core.Couple {
	cats := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		cats = append(cats, sanitizeInput(c))
	}
	return core.Couple{
		NameA:      sanitizeInput(r.NameA),
		NameB:      sanitizeInput(r.NameB),
		Currency:   r.Currency,
		Categories: cats,
	}
}

type splitRequest struct {
	A int64 `json:"a" validate:"gte=0"`
	B int64 `json:"b" validate:"gte=0"`
}

// createExpenseRequest carries the amount as the user typed it ("1.234,50").
type createExpenseRequest struct {
	Title        string        `json:"title" validate:"required,max=200"`
	Amount       string        `json:"amount" validate:"required,max=32"`
	Date         string        `json:"date" validate:"required,datetime=2006-01-02"`
	Category     string        `json:"category" validate:"required,max=60"`
	PaidBy       string        `json:"paid_by" validate:"required,party"`
	Split        *splitRequest `json:"split"`
	IsFixed      bool          `json:"is_fixed"`
	FixedKind    string        `json:"fixed_kind" validate:"omitempty,fixedkind"`
	IsCard       bool          `json:"is_card"`
	Installments int           `json:"installments" validate:"gte=0,lte=360"`
}

func (r createExpenseRequest) toDraft() (services.ExpenseDraft, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return services.ExpenseDraft{}, err
	}
	split := core.EvenSplit()
	if r.Split != nil {
		split = core.Split{A: r.Split.A, B: r.Split.B}
	}
	return services.ExpenseDraft{
		Title:        sanitizeInput(r.Title),
		Amount:       core.ParseAmount(r.Amount),
		Date:         date,
		Category:     sanitizeInput(r.Category),
		PaidBy:       core.Party(r.PaidBy),
		Split:        split,
		IsFixed:      r.IsFixed,
		FixedKind:    core.FixedKind(r.FixedKind),
		IsCard:       r.IsCard,
		Installments: r.Installments,
	}, nil
}

// updateExpenseRequest is a partial update; absent fields stay as they are.
type updateExpenseRequest struct {
	Title     *string       `json:"title" validate:"omitempty,max=200"`
	Amount    *string       `json:"amount" validate:"omitempty,max=32"`
	Date      *string       `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Category  *string       `json:"category" validate:"omitempty,max=60"`
	PaidBy    *string       `json:"paid_by" validate:"omitempty,party"`
	Split     *splitRequest `json:"split"`
	IsFixed   *bool         `json:"is_fixed"`
	FixedKind *string       `json:"fixed_kind" validate:"omitempty,fixedkind"`
	IsCard    *bool         `json:"is_card"`
}

func (r updateExpenseRequest) toPatch() (core.ExpensePatch, error) {
	var p core.ExpensePatch
	if r.Title != nil {
		v := sanitizeInput(*r.Title)
		p.Title = &v
	}
	if r.Amount != nil {
		v := core.ParseAmount(*r.Amount)
		p.Amount = &v
	}
	if r.Date != nil {
		d, err := core.ParseDate(*r.Date)
		if err != nil {
			return core.ExpensePatch{}, err
		}
		p.Date = &d
	}
	if r.Category != nil {
		v := sanitizeInput(*r.Category)
		p.Category = &v
	}
	if r.PaidBy != nil {
		v := core.Party(*r.PaidBy)
		p.PaidBy = &v
	}
	if r.Split != nil {
		p.Split = &core.Split{A: r.Split.A, B: r.Split.B}
	}
	if r.FixedKind != nil {
		v := core.FixedKind(*r.FixedKind)
		p.FixedKind = &v
	}
	p.IsFixed = r.IsFixed
	p.IsCard = r.IsCard
	return p, nil
}

type createIncomeRequest struct {
	Person    string `json:"person" validate:"required,party"`
	Source    string `json:"source" validate:"required,max=100"`
	Amount    string `json:"amount" validate:"required,max=32"`
	YearMonth string `json:"year_month" validate:"required,yearmonth"`
}

func (r createIncomeRequest) toIncome() core.Income {
	ym, _ := core.ParseYearMonth(r.YearMonth)
	return core.Income{
		Person:    core.Party(r.Person),
		Source:    sanitizeInput(r.Source),
		Amount:    core.Money{Cents: core.ParseAmount(r.Amount)},
		YearMonth: ym,
	}
}

type updateIncomeRequest struct {
	Person    *string `json:"person" validate:"omitempty,party"`
	Source    *string `json:"source" validate:"omitempty,max=100"`
	Amount    *string `json:"amount" validate:"omitempty,max=32"`
	YearMonth *string `json:"year_month" validate:"omitempty,yearmonth"`
}

func (r updateIncomeRequest) toPatch() (core.IncomePatch, error) {
	var p core.IncomePatch
	if r.Person != nil {
		v := core.Party(*r.Person)
		p.Person = &v
	}
	if r.Source != nil {
		v := sanitizeInput(*r.Source)
		if v == "" {
			return core.IncomePatch{}, core.ErrEmptySource
		}
		p.Source = &v
	}
	if r.Amount != nil {
		v := core.ParseAmount(*r.Amount)
		p.Amount = &v
	}
	if r.YearMonth != nil {
		ym, err := core.ParseYearMonth(*r.YearMonth)
		if err != nil {
			return core.IncomePatch{}, err
		}
		p.YearMonth = &ym
	}
	return p, nil
}

// decodeJSON reads one JSON object into dst and validates it. Unknown
// fields and trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", errBadRequest)
	}
	return validate.Struct(dst)
}

// pathYearMonth reads the {ym} path segment.
func pathYearMonth(r *http.Request) (core.YearMonth, error) {
	ym, err := core.ParseYearMonth(r.PathValue("ym"))
	if err != nil {
		return core.YearMonth{}, fmt.Errorf("%w: month must be formatted YYYY-MM", errBadRequest)
	}
	return ym, nil
}

// queryYearMonth reads ?month=, defaulting to the month of now.
func queryYearMonth(r *http.Request, now time.Time) (core.YearMonth, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.CurrentYearMonth(now), nil
	}
	ym, err := core.ParseYearMonth(v)
	if err != nil {
		return core.YearMonth{}, fmt.Errorf("%w: month must be formatted YYYY-MM", errBadRequest)
	}
	return ym, nil
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
