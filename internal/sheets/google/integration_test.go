//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/report"
	ports "spendwise/internal/sheets"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_WriteReport(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if os.Getenv("GOOGLE_SPREADSHEET_ID") == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON") == "" && os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE") == "" &&
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	client, err := NewFromEnv(ctx)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	r, err := report.Assemble(report.ReportData{
		UserID:   "integration-test",
		Expenses: []core.ExpenseDetail{{
			Expense:      core.Expense{Amount: core.Money{Cents: 1234}, Currency: core.CAD, Date: core.NewDate(2024, 1, 2), CreatedAt: time.Now()},
			CategoryName: "Integration",
		}},
		Currency:    core.CAD,
		Start:       core.NewDate(2024, 1, 1),
		End:         core.NewDate(2024, 1, 31),
		GeneratedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	ref, err := client.WriteReport(ctx, r)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	t.Logf("report written to %s", ref)

	rows, err := client.ReadTab(ctx, ports.TabName(r, report.SheetExpenses))
	if err != nil {
		t.Fatalf("ReadTab: %v", err)
	}
	if len(rows) < 2 || rows[1][1] != "Integration" {
		t.Fatalf("unexpected expenses tab: %v", rows)
	}
}
