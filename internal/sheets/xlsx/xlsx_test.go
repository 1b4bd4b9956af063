package xlsx

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
	"spendwise/internal/report"
)

func sampleReport(t *testing.T, withBudgets bool) report.Report {
	t.Helper()
	d := report.ReportData{
		Expenses: []core.ExpenseDetail{
			{Expense: core.Expense{Amount: core.Money{Cents: 2550}, Currency: core.CAD, Date: core.NewDate(2024, 3, 1), CreatedAt: time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)}, CategoryName: "Food"},
			{Expense: core.Expense{Amount: core.Money{Cents: 4000}, Currency: core.CAD, Date: core.NewDate(2024, 3, 2), Description: "Bus"}, CategoryName: "Transport"},
		},
		Currency:    core.CAD,
		Timezone:    "America/Halifax",
		Start:       core.NewDate(2024, 3, 1),
		End:         core.NewDate(2024, 3, 31),
		GeneratedAt: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
	}
	if withBudgets {
		d.Budgets = []core.BudgetOverview{{CategoryName: "Food", BudgetAmount: core.Money{Cents: 10000}, SpentAmount: core.Money{Cents: 2550}, PercentageUsed: 25.5, Remaining: core.Money{Cents: 7450}, Currency: core.CAD}}
	}
	r, err := report.Assemble(d)
	require.NoError(t, err)
	return r
}

// text renders a cell the way it reads back from a workbook.
func text(rows [][]any) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		end := len(row)
		for end > 0 && (row[end-1] == nil || row[end-1] == "") {
			end--
		}
		out[i] = make([]string, end)
		for j := 0; j < end; j++ {
			if row[j] != nil {
				out[i][j] = fmt.Sprint(row[j])
			}
		}
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, withBudgets := range []bool{false, true} {
		r := sampleReport(t, withBudgets)
		b, err := Encode(r)
		require.NoError(t, err)
		require.NotEmpty(t, b)
		assert.Equal(t, "PK", string(b[:2]), "xlsx is a zip archive")

		got, err := Decode(b)
		require.NoError(t, err)
		assert.Equal(t, r.SheetNames(), got.SheetNames())
		for i, sheet := range r.Sheets {
			assert.Equal(t, text(sheet.Rows), text(got.Sheets[i].Rows), sheet.Name)
		}
	}
}

func TestEncodeKeepsBlankRows(t *testing.T) {
	r := report.Report{Sheets: []report.Sheet{{Name: "Only", Rows: [][]any{{"a"}, {}, {"b", nil, 3}}}}}
	b, err := Encode(r)
	require.NoError(t, err)
	got, err := Decode(b)
	require.NoError(t, err)
	require.Len(t, got.Sheets, 1)
	assert.Equal(t, [][]string{{"a"}, {}, {"b", "", "3"}}, text(got.Sheets[0].Rows))
}

func TestEncodeEmptyReport(t *testing.T) {
	_, err := Encode(report.Report{})
	assert.ErrorIs(t, err, ErrNoSheets)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("not a workbook"))
	assert.Error(t, err)
}
