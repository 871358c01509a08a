package memory

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"casal/internal/core"
	"casal/internal/store"
)

// Store keeps every household in process memory. Safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	categories []string
	couples    map[string]core.Couple
	expenses   map[string][]core.Expense
	incomes    map[string][]core.Income
	usage      map[string]map[string]int

	newID func() string
	now   func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty store; categories seed couples created without a list.
func New(categories []string) *Store {
	if len(categories) == 0 {
		categories = core.DefaultCategories
	}
	return &Store{
		categories: dedupe(categories),
		couples:    make(map[string]core.Couple),
		expenses:   make(map[string][]core.Expense),
		incomes:    make(map[string][]core.Income),
		usage:      make(map[string]map[string]int),
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// NewFromFiles seeds default categories from base/seed_categories.txt.
func NewFromFiles(base string) *Store {
	return New(SeedCategories(base))
}

// SeedCategories reads base/seed_categories.txt, one category per line with
// # comments. A missing file yields nil.
func SeedCategories(base string) []string {
	return readLines(filepath.Join(base, "seed_categories.txt"))
}

// WithClock replaces the timestamp source, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) CreateCouple(_ context.Context, c core.Couple) (core.Couple, error) {
	if err := c.Validate(); err != nil {
		return core.Couple{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = s.newID()
	}
	if _, exists := s.couples[c.ID]; exists {
		return core.Couple{}, fmt.Errorf("couple %s already exists", c.ID)
	}
	c.Currency = strings.ToUpper(c.Currency)
	c.Categories = dedupe(c.Categories)
	if len(c.Categories) == 0 {
		c.Categories = append([]string(nil), s.categories...)
	}
	c.CreatedAt = s.now().UTC()
	s.couples[c.ID] = c
	return c, nil
}

func (s *Store) GetCouple(_ context.Context, id string) (core.Couple, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.couples[id]
	if !ok {
		return core.Couple{}, core.ErrNotFound
	}
	c.Categories = append([]string(nil), c.Categories...)
	return c, nil
}

func (s *Store) ListCouples(_ context.Context) ([]core.Couple, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Couple, 0, len(s.couples))
	for _, c := range s.couples {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b core.Couple) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// AppendExpenses validates the whole batch before storing any of it.
func (s *Store) AppendExpenses(_ context.Context, coupleID string, es []core.Expense) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.couples[coupleID]; !ok {
		return nil, core.ErrNoHousehold
	}
	now := s.now().UTC()
	out := make([]core.Expense, len(es))
	for i, e := range es {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("expense %d: %w", i, err)
		}
		e.ID = s.newID()
		e.CoupleID = coupleID
		e.YearMonth = e.Date.YearMonth()
		e.CreatedAt, e.UpdatedAt = now, now
		out[i] = e
	}
	s.expenses[coupleID] = append(s.expenses[coupleID], out...)
	return slices.Clone(out), nil
}

func (s *Store) ListExpenses(_ context.Context, coupleID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.expenses[coupleID]), nil
}

func (s *Store) GetExpense(_ context.Context, coupleID, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(coupleID, id)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	return s.expenses[coupleID][i], nil
}

func (s *Store) UpdateExpense(_ context.Context, coupleID, id string, patch core.ExpensePatch) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(coupleID, id)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	updated := patch.Apply(s.expenses[coupleID][i])
	if err := updated.Validate(); err != nil {
		return core.Expense{}, err
	}
	updated.UpdatedAt = s.now().UTC()
	s.expenses[coupleID][i] = updated
	return updated, nil
}

func (s *Store) SoftDeleteExpense(_ context.Context, coupleID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(coupleID, id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.expenses[coupleID][i].Deleted = true
	s.expenses[coupleID][i].UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, coupleID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(coupleID, id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.expenses[coupleID] = slices.Delete(s.expenses[coupleID], i, i+1)
	return nil
}

func (s *Store) AppendIncome(_ context.Context, coupleID string, in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.couples[coupleID]; !ok {
		return core.Income{}, core.ErrNoHousehold
	}
	now := s.now().UTC()
	in.ID = s.newID()
	in.CoupleID = coupleID
	in.CreatedAt, in.UpdatedAt = now, now
	s.incomes[coupleID] = append(s.incomes[coupleID], in)
	return in, nil
}

func (s *Store) ListIncomes(_ context.Context, coupleID string) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.incomes[coupleID]), nil
}

func (s *Store) UpdateIncome(_ context.Context, coupleID, id string, patch core.IncomePatch) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.incomeIndex(coupleID, id)
	if i < 0 {
		return core.Income{}, core.ErrNotFound
	}
	updated := patch.Apply(s.incomes[coupleID][i])
	if err := updated.Validate(); err != nil {
		return core.Income{}, err
	}
	updated.UpdatedAt = s.now().UTC()
	s.incomes[coupleID][i] = updated
	return updated, nil
}

func (s *Store) DeleteIncome(_ context.Context, coupleID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.incomeIndex(coupleID, id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.incomes[coupleID] = slices.Delete(s.incomes[coupleID], i, i+1)
	return nil
}

func (s *Store) RecordCategoryUse(_ context.Context, coupleID, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return core.ErrEmptyCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usage[coupleID] == nil {
		s.usage[coupleID] = make(map[string]int)
	}
	s.usage[coupleID][category]++
	return nil
}

func (s *Store) CategoryUsage(_ context.Context, coupleID string) ([]store.CategoryCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.CategoryCount, 0, len(s.usage[coupleID]))
	for cat, n := range s.usage[coupleID] {
		out = append(out, store.CategoryCount{Category: cat, Count: n})
	}
	slices.SortFunc(out, func(a, b store.CategoryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) expenseIndex(coupleID, id string) int {
	return slices.IndexFunc(s.expenses[coupleID], func(e core.Expense) bool { return e.ID == id })
}

func (s *Store) incomeIndex(coupleID, id string) int {
	return slices.IndexFunc(s.incomes[coupleID], func(i core.Income) bool { return i.ID == id })
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe trims, drops blanks and repeats, and preserves input order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
