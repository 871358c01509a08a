package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"casal/internal/core"
	"casal/internal/store"
)

type CoupleStore interface {
	store.CoupleStore
	store.CategoryCounter
}

// CoupleService creates households and lists their categories.
type CoupleService struct {
	store CoupleStore
}

func NewCoupleService(st CoupleStore) *CoupleService {
	return &CoupleService{store: st}
}

func (s *CoupleService) CreateCouple(ctx context.Context, c core.Couple) (core.Couple, error) {
	c.NameA = strings.TrimSpace(c.NameA)
	c.NameB = strings.TrimSpace(c.NameB)
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if err := c.Validate(); err != nil {
		return core.Couple{}, err
	}
	saved, err := s.store.CreateCouple(ctx, c)
	if err != nil {
		return core.Couple{}, fmt.Errorf("create couple: %w", err)
	}
	slog.InfoContext(ctx, "Couple created", "couple_id", saved.ID, "currency", saved.Currency)
	return saved, nil
}

func (s *CoupleService) GetCouple(ctx context.Context, id string) (core.Couple, error) {
	c, err := s.store.GetCouple(ctx, id)
	if err != nil {
		return core.Couple{}, fmt.Errorf("get couple: %w", err)
	}
	return c, nil
}

// Categories returns the couple's categories, most used first, then the
// never-used ones in their configured order.
func (s *CoupleService) Categories(ctx context.Context, c core.Couple) []string {
	usage, err := s.store.CategoryUsage(ctx, c.ID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read category usage", "couple_id", c.ID, "error", err)
		return c.Categories
	}
	out := make([]string, 0, len(c.Categories))
	seen := make(map[string]bool)
	for _, u := range usage {
		out = append(out, u.Category)
		seen[u.Category] = true
	}
	for _, cat := range c.Categories {
		if !seen[cat] {
			out = append(out, cat)
		}
	}
	return out
}
