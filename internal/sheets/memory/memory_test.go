package memory

import (
	"context"
	"errors"
	"testing"

	"spendwise/internal/core"
	"spendwise/internal/report"
	ports "spendwise/internal/sheets"
)

func TestStoreWriteAndRead(t *testing.T) {
	s := New()
	r := report.Report{
		UserID: "u1",
		Start:  core.NewDate(2024, 3, 1),
		End:    core.NewDate(2024, 3, 31),
		Sheets: []report.Sheet{
			{Name: report.SheetSummary, Rows: [][]any{{"MONTHLY FINANCIAL REPORT"}, {}, {"Total Transactions:", 3}}},
			{Name: report.SheetExpenses, Rows: [][]any{{"TOTAL", "", "", 75.5, "CAD", nil, ""}}},
		},
	}
	ref, err := s.WriteReport(context.Background(), r)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("unexpected ref %q", ref)
	}
	tabs := s.Tabs()
	if len(tabs) != 2 || tabs[0] != "u1 2024-03-01..2024-03-31 Summary" {
		t.Fatalf("unexpected tabs %v", tabs)
	}
	rows, err := s.ReadTab(context.Background(), tabs[1])
	if err != nil {
		t.Fatalf("ReadTab: %v", err)
	}
	if rows[0][3] != "75.5" || rows[0][5] != "" {
		t.Fatalf("unexpected row %v", rows[0])
	}

	// rewriting the same period replaces the tabs
	if _, err := s.WriteReport(context.Background(), r); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if len(s.Tabs()) != 2 || len(s.Reports()) != 2 {
		t.Fatalf("expected 2 tabs and 2 reports, got %d and %d", len(s.Tabs()), len(s.Reports()))
	}
}

func TestStoreErrors(t *testing.T) {
	s := New()
	if _, err := s.WriteReport(context.Background(), report.Report{}); err == nil {
		t.Fatal("expected error for empty report")
	}
	unowned := report.Report{Sheets: []report.Sheet{{Name: report.SheetSummary}}}
	if _, err := s.WriteReport(context.Background(), unowned); !errors.Is(err, ports.ErrNoOwner) {
		t.Fatalf("expected ErrNoOwner, got %v", err)
	}
	if _, err := s.ReadTab(context.Background(), "missing"); !errors.Is(err, ErrTabNotFound) {
		t.Fatalf("expected ErrTabNotFound, got %v", err)
	}
}

func monthReport(userID, category string, sheets ...string) report.Report {
	r := report.Report{UserID: userID, Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}
	for _, name := range sheets {
		r.Sheets = append(r.Sheets, report.Sheet{Name: name, Rows: [][]any{{"2024-03-01", category, "", 10.0}}})
	}
	return r
}

func TestStoreKeepsUsersApart(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := monthReport("alice", "Alice-Medical", report.SheetSummary, report.SheetExpenses, report.SheetBudgetAnalysis, report.SheetCategoryBreakdown)
	bob := monthReport("bob", "Bob-Food", report.SheetSummary, report.SheetExpenses, report.SheetCategoryBreakdown)
	for _, r := range []report.Report{alice, bob} {
		if _, err := s.WriteReport(ctx, r); err != nil {
			t.Fatalf("WriteReport(%s): %v", r.UserID, err)
		}
	}

	if got := len(s.Tabs()); got != 7 {
		t.Fatalf("expected 7 tabs, got %d: %v", got, s.Tabs())
	}
	rows, err := s.ReadTab(ctx, ports.TabName(alice, report.SheetExpenses))
	if err != nil {
		t.Fatalf("ReadTab: %v", err)
	}
	if rows[0][1] != "Alice-Medical" {
		t.Fatalf("alice expenses overwritten: %v", rows[0])
	}
	if _, err := s.ReadTab(ctx, ports.TabName(bob, report.SheetBudgetAnalysis)); !errors.Is(err, ErrTabNotFound) {
		t.Fatalf("bob must not see a budget tab, got %v", err)
	}
}

func TestStoreDropsOmittedSheets(t *testing.T) {
	s := New()
	ctx := context.Background()
	full := monthReport("alice", "Food", report.SheetOrder...)
	if _, err := s.WriteReport(ctx, full); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	slim := monthReport("alice", "Food", report.SheetSummary, report.SheetExpenses, report.SheetCategoryBreakdown)
	if _, err := s.WriteReport(ctx, slim); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	want := []string{
		ports.TabName(slim, report.SheetSummary),
		ports.TabName(slim, report.SheetExpenses),
		ports.TabName(slim, report.SheetCategoryBreakdown),
	}
	got := s.Tabs()
	if len(got) != len(want) {
		t.Fatalf("got tabs %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tab %d: got %q want %q", i, got[i], want[i])
		}
	}
}
