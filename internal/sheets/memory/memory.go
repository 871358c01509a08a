package memory

import (
	"context"
	"slices"
	"sync"

	"casal/internal/core"
	ports "casal/internal/sheets"
)

// Exporter keeps the last snapshot of every tab in memory. Used when no
// spreadsheet is configured and in tests.
type Exporter struct {
	mu      sync.Mutex
	tabs    map[string]ports.MonthSheet
	exports int
}

var _ ports.MonthExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{tabs: make(map[string]ports.MonthSheet)}
}

// ExportMonth replaces the tab of m's couple and month.
func (e *Exporter) ExportMonth(_ context.Context, m ports.MonthSheet) error {
	if m.Couple.ID == "" {
		return core.ErrNoHousehold
	}
	m.Expenses = slices.Clone(m.Expenses)
	m.Tips = slices.Clone(m.Tips)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tabs[ports.TabName(m.Couple.ID, m.YearMonth)] = m
	e.exports++
	return nil
}

// Tab returns the snapshot stored under name.
func (e *Exporter) Tab(name string) (ports.MonthSheet, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.tabs[name]
	return m, ok
}

// Tabs lists tab names in sorted order.
func (e *Exporter) Tabs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.tabs))
	for name := range e.tabs {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Exports counts ExportMonth calls that succeeded.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
