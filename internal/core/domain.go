package core

import (
	"errors"
	"strings"
	"time"
)

const (
	PartyA Party = "A"
	PartyB Party = "B"
)

const (
	RuleFixed        RuleKind = "fixed"
	RuleInstallments RuleKind = "installments"
)

const (
	FixedWater    FixedKind = "water"
	FixedPower    FixedKind = "power"
	FixedInternet FixedKind = "internet"
	FixedRent     FixedKind = "rent"
	FixedOther    FixedKind = "other"
)

// SettlementCategory is reserved for records written by the settlement engine.
const SettlementCategory = "Settlement"

type (
	Party     string
	RuleKind  string
	FixedKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Split holds the two non-negative ratio weights. {0,0} marks a personal expense.
	Split struct {
		A int64 `json:"a"`
		B int64 `json:"b"`
	}

	Expense struct {
		ID                string
		CoupleID          string
		Title             string
		Amount            Money
		Date              Date
		YearMonth         YearMonth
		Category          string
		PaidBy            Party
		Split             Split
		IsFixed           bool
		FixedKind         FixedKind
		IsCard            bool
		Installments      int
		InstallmentNumber int    // 1-based, 0 when not part of an installment series
		GroupID           string // shared by every occurrence of one expansion
		RuleKind          RuleKind
		Generated         bool
		Deleted           bool
		CreatedAt         time.Time
		UpdatedAt         time.Time
	}

	Income struct {
		ID        string
		CoupleID  string
		Person    Party
		Source    string
		Amount    Money
		YearMonth YearMonth
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Couple struct {
		ID         string
		NameA      string
		NameB      string
		Currency   string
		Categories []string
		CreatedAt  time.Time
	}

	// ExpensePatch is a partial update; nil fields are left untouched.
	ExpensePatch struct {
		Title     *string
		Amount    *int64
		Date      *Date
		Category  *string
		PaidBy    *Party
		Split     *Split
		IsFixed   *bool
		FixedKind *FixedKind
		IsCard    *bool
	}

	IncomePatch struct {
		Person    *Party
		Source    *string
		Amount    *int64
		YearMonth *YearMonth
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYearMonth = errors.New("invalid year-month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptySource      = errors.New("empty income source")
	ErrInvalidParty     = errors.New("invalid party")
	ErrInvalidSplit     = errors.New("invalid split weights")
	ErrInvalidFixedKind = errors.New("invalid fixed kind")
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrEmptyName        = errors.New("empty partner name")
	ErrNoHousehold      = errors.New("no household context")
	ErrNotFound         = errors.New("record not found")
	ErrSettlementRecord = errors.New("settlement records are written by the settlement engine only")
)

func (p Party) Validate() error {
	switch p {
	case PartyA, PartyB:
		return nil
	}
	return ErrInvalidParty
}

// Other returns the counterparty.
func (p Party) Other() Party {
	if p == PartyA {
		return PartyB
	}
	return PartyA
}

func (k FixedKind) Validate() error {
	switch k {
	case FixedWater, FixedPower, FixedInternet, FixedRent, FixedOther:
		return nil
	}
	return ErrInvalidFixedKind
}

func (s Split) Validate() error {
	if s.A < 0 || s.B < 0 {
		return ErrInvalidSplit
	}
	return nil
}

// Personal reports whether the split is the personal-expense sentinel.
func (s Split) Personal() bool {
	return s.total().Sign() <= 0
}

// EvenSplit is applied when a record carries no split.
func EvenSplit() Split {
	return Split{A: 1, B: 1}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO calendar day (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDay
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// YearMonth returns the month the date falls in.
func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Time.Month()}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if e.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if err := e.PaidBy.Validate(); err != nil {
		return err
	}
	if err := e.Split.Validate(); err != nil {
		return err
	}
	if e.IsFixed && e.FixedKind != "" {
		if err := e.FixedKind.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsSettlement reports whether the record was written by the settlement engine.
func (e Expense) IsSettlement() bool {
	return e.Category == SettlementCategory
}

// Apply returns a copy of e with the patch applied. A new date always moves
// the record's year-month along with it.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Amount != nil {
		e.Amount = Money{Cents: *p.Amount}
	}
	if p.Date != nil {
		e.Date = *p.Date
		e.YearMonth = p.Date.YearMonth()
	}
	if p.Category != nil {
		e.Category = strings.TrimSpace(*p.Category)
	}
	if p.PaidBy != nil {
		e.PaidBy = *p.PaidBy
	}
	if p.Split != nil {
		e.Split = *p.Split
	}
	if p.IsFixed != nil {
		e.IsFixed = *p.IsFixed
		if !e.IsFixed {
			e.FixedKind = ""
		}
	}
	if p.FixedKind != nil && e.IsFixed {
		e.FixedKind = *p.FixedKind
	}
	if p.IsCard != nil {
		e.IsCard = *p.IsCard
	}
	return e
}

func (i Income) Validate() error {
	if err := i.Person.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(i.Source) == "" {
		return ErrEmptySource
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	return i.YearMonth.Validate()
}

func (p IncomePatch) Apply(i Income) Income {
	if p.Person != nil {
		i.Person = *p.Person
	}
	if p.Source != nil {
		i.Source = strings.TrimSpace(*p.Source)
	}
	if p.Amount != nil {
		i.Amount = Money{Cents: *p.Amount}
	}
	if p.YearMonth != nil {
		i.YearMonth = *p.YearMonth
	}
	return i
}

func (c Couple) Validate() error {
	if strings.TrimSpace(c.NameA) == "" || strings.TrimSpace(c.NameB) == "" {
		return ErrEmptyName
	}
	if !ValidCurrency(c.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

// Name returns the display name of a party, falling back to its tag.
func (c Couple) Name(p Party) string {
	switch {
	case p == PartyA && c.NameA != "":
		return c.NameA
	case p == PartyB && c.NameB != "":
		return c.NameB
	}
	return string(p)
}

// DefaultCategories seeds a new couple's category list.
var DefaultCategories = []string{
	"Groceries", "Housing", "Utilities", "Transport", "Health",
	"Leisure", "Restaurants", "Education", "Other",
}
