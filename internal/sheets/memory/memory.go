package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"spendwise/internal/report"
	ports "spendwise/internal/sheets"
)

var ErrTabNotFound = errors.New("tab not found")

// Store is an in-memory ReportWriter for tests and local development.
type Store struct {
	mu      sync.Mutex
	tabs    map[string][][]string
	order   []string
	reports []report.Report
}

var (
	_ ports.ReportWriter = (*Store)(nil)
	_ ports.TabReader    = (*Store)(nil)
)

func New() *Store {
	return &Store{tabs: make(map[string][][]string)}
}

// WriteReport stores every sheet under its tab name, drops the owner's tabs
// for sheets r omits, and returns a synthetic reference.
func (s *Store) WriteReport(_ context.Context, r report.Report) (string, error) {
	if len(r.Sheets) == 0 {
		return "", errors.New("report has no sheets")
	}
	if r.UserID == "" {
		return "", ports.ErrNoOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tab := range ports.StaleTabs(r) {
		s.removeTab(tab)
	}
	for _, sheet := range r.Sheets {
		tab := ports.TabName(r, sheet.Name)
		if _, ok := s.tabs[tab]; !ok {
			s.order = append(s.order, tab)
		}
		s.tabs[tab] = stringify(sheet.Rows)
	}
	s.reports = append(s.reports, r)
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

func (s *Store) removeTab(tab string) {
	if _, ok := s.tabs[tab]; !ok {
		return
	}
	delete(s.tabs, tab)
	for i, t := range s.order {
		if t == tab {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// ReadTab returns a copy of a written tab.
func (s *Store) ReadTab(_ context.Context, tab string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tabs[tab]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTabNotFound, tab)
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

// Tabs lists tab names in the order they were first written.
func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Reports returns every report written so far.
func (s *Store) Reports() []report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]report.Report(nil), s.reports...)
}

func stringify(rows [][]any) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out
}
