package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendwise/internal/core"
	"spendwise/internal/report"
	ports "spendwise/internal/sheets"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "test-id"})
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "test-id", ServiceAccountFile: t.TempDir() + "/nope.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected file read error, got %v", err)
	}
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
}

func TestClient_uninitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	r := report.Report{Sheets: []report.Sheet{{Name: "Summary"}}}
	if _, err := c.WriteReport(context.Background(), r); err == nil {
		t.Fatal("expected error when service is nil")
	}
	if _, err := c.ReadTab(context.Background(), "Summary"); err == nil {
		t.Fatal("expected error when service is nil")
	}
}

func TestQuoteTab(t *testing.T) {
	cases := map[string]string{
		"Summary":                        "'Summary'",
		"2024-03-01..2024-03-31 Summary": "'2024-03-01..2024-03-31 Summary'",
		"Bob's":                          "'Bob''s'",
	}
	for in, want := range cases {
		if got := quoteTab(in); got != want {
			t.Errorf("quoteTab(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMissingTabs(t *testing.T) {
	got := missingTabs([]string{"Sheet1", "b"}, []string{"a", "b", "c", "a"})
	if strings.Join(got, ",") != "a,c" {
		t.Fatalf("unexpected missing tabs %v", got)
	}
	if got := missingTabs([]string{"a"}, []string{"a"}); len(got) != 0 {
		t.Fatalf("expected none missing, got %v", got)
	}
}

func TestToValues(t *testing.T) {
	got := toValues([][]any{{"Total:", 12.5, nil}, {}})
	if len(got) != 2 || len(got[0]) != 3 || len(got[1]) != 0 {
		t.Fatalf("unexpected shape %v", got)
	}
	if got[0][1] != 12.5 || got[0][2] != "" {
		t.Fatalf("unexpected cells %v", got[0])
	}
}

func TestParseValues(t *testing.T) {
	got := parseValues([][]interface{}{{" Food ", 35.5}, {}, {"TOTAL", 3}})
	want := [][]string{{"Food", "35.5"}, {}, {"TOTAL", "3"}}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if strings.Join(got[i], "|") != strings.Join(want[i], "|") {
			t.Fatalf("row %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestTabNamesForReport(t *testing.T) {
	r := report.Report{UserID: "u1", Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}
	tabs := []string{}
	for _, s := range []string{report.SheetSummary, report.SheetExpenses} {
		tabs = append(tabs, quoteTab(ports.TabName(r, s)))
	}
	if tabs[0] != "'u1 2024-03-01..2024-03-31 Summary'" {
		t.Fatalf("unexpected tab %s", tabs[0])
	}
}

// fakeSheets serves the subset of the Sheets v4 REST API WriteReport uses.
type fakeSheets struct {
	mu         sync.Mutex
	titles     map[string]int64
	nextID     int64
	values     map[string][][]interface{}
	inputModes []string
}

func newFakeSheets(t *testing.T) (*fakeSheets, *Client) {
	t.Helper()
	f := &fakeSheets{titles: map[string]int64{"Sheet1": 0}, nextID: 1, values: map[string][][]interface{}{}}
	ts := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(ts.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(ts.URL+"/"),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return f, &Client{svc: svc, spreadsheetID: "sid"}
}

func unquoteTab(rng string) string {
	rng = strings.TrimSuffix(rng, "!A1")
	rng = strings.TrimSuffix(strings.TrimPrefix(rng, "'"), "'")
	return strings.ReplaceAll(rng, "''", "'")
}

func (f *fakeSheets) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/sid")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && path == "":
		ss := gsheet.Spreadsheet{}
		for title, id := range f.titles {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{SheetId: id, Title: title}})
		}
		_ = json.NewEncoder(w).Encode(ss)
	case r.Method == http.MethodPost && path == ":batchUpdate":
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, rq := range req.Requests {
			switch {
			case rq.AddSheet != nil:
				f.titles[rq.AddSheet.Properties.Title] = f.nextID
				f.nextID++
			case rq.DeleteSheet != nil:
				for title, id := range f.titles {
					if id == rq.DeleteSheet.SheetId {
						delete(f.titles, title)
						delete(f.values, title)
					}
				}
			}
		}
		_ = json.NewEncoder(w).Encode(gsheet.BatchUpdateSpreadsheetResponse{})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		tab := unquoteTab(strings.TrimSuffix(strings.TrimPrefix(path, "/values/"), ":clear"))
		delete(f.values, tab)
		_ = json.NewEncoder(w).Encode(gsheet.ClearValuesResponse{})
	case r.Method == http.MethodPut && strings.HasPrefix(path, "/values/"):
		tab := unquoteTab(strings.TrimPrefix(path, "/values/"))
		if _, ok := f.titles[tab]; !ok {
			http.Error(w, "unknown tab "+tab, http.StatusBadRequest)
			return
		}
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.values[tab] = vr.Values
		f.inputModes = append(f.inputModes, r.URL.Query().Get("valueInputOption"))
		_ = json.NewEncoder(w).Encode(gsheet.UpdateValuesResponse{})
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}
}

func (f *fakeSheets) cell(tab string, row, col int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.values[tab]
	if row >= len(rows) || col >= len(rows[row]) {
		return ""
	}
	return fmt.Sprint(rows[row][col])
}

func (f *fakeSheets) hasTab(tab string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.titles[tab]
	return ok
}

func ownedReport(userID, category string, sheets ...string) report.Report {
	r := report.Report{UserID: userID, Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}
	for _, name := range sheets {
		r.Sheets = append(r.Sheets, report.Sheet{Name: name, Rows: [][]any{{category, 12.5}}})
	}
	return r
}

func TestWriteReport_TabsArePerUser(t *testing.T) {
	f, c := newFakeSheets(t)
	ctx := context.Background()

	alice := ownedReport("alice", "Alice-Medical", report.SheetSummary, report.SheetExpenses, report.SheetBudgetAnalysis)
	bob := ownedReport("bob", "Bob-Food", report.SheetSummary, report.SheetExpenses)
	for _, r := range []report.Report{alice, bob} {
		if _, err := c.WriteReport(ctx, r); err != nil {
			t.Fatalf("WriteReport(%s): %v", r.UserID, err)
		}
	}

	if got := f.cell(ports.TabName(alice, report.SheetExpenses), 0, 0); got != "Alice-Medical" {
		t.Errorf("alice expenses tab holds %q", got)
	}
	if got := f.cell(ports.TabName(bob, report.SheetExpenses), 0, 0); got != "Bob-Food" {
		t.Errorf("bob expenses tab holds %q", got)
	}
	if f.hasTab(ports.TabName(bob, report.SheetBudgetAnalysis)) {
		t.Error("bob must not get a budget tab")
	}
	if !f.hasTab(ports.TabName(alice, report.SheetBudgetAnalysis)) {
		t.Error("alice budget tab was removed by bob's export")
	}
}

func TestWriteReport_DeletesOmittedSheets(t *testing.T) {
	f, c := newFakeSheets(t)
	ctx := context.Background()

	full := ownedReport("alice", "Groceries", report.SheetSummary, report.SheetExpenses, report.SheetBudgetAnalysis, report.SheetMonthlyTrends)
	if _, err := c.WriteReport(ctx, full); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	slim := ownedReport("alice", "Groceries", report.SheetSummary, report.SheetExpenses)
	if _, err := c.WriteReport(ctx, slim); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	for _, name := range []string{report.SheetBudgetAnalysis, report.SheetMonthlyTrends} {
		if f.hasTab(ports.TabName(slim, name)) {
			t.Errorf("stale tab %s survived", name)
		}
	}
	if !f.hasTab(ports.TabName(slim, report.SheetSummary)) {
		t.Error("summary tab missing")
	}
}

func TestWriteReport_StoresFormulaTextVerbatim(t *testing.T) {
	f, c := newFakeSheets(t)
	r := ownedReport("alice", "=HYPERLINK(\"http://x\")", report.SheetExpenses)
	if _, err := c.WriteReport(context.Background(), r); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	for _, mode := range f.inputModes {
		if mode != "RAW" {
			t.Fatalf("values written with %s", mode)
		}
	}
	if got := f.cell(ports.TabName(r, report.SheetExpenses), 0, 0); got != `=HYPERLINK("http://x")` {
		t.Errorf("unexpected cell %q", got)
	}
}

func TestWriteReport_RequiresOwner(t *testing.T) {
	_, c := newFakeSheets(t)
	r := ownedReport("", "Food", report.SheetSummary)
	if _, err := c.WriteReport(context.Background(), r); !errors.Is(err, ports.ErrNoOwner) {
		t.Fatalf("expected ErrNoOwner, got %v", err)
	}
}
