package report

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"spendwise/internal/core"
)

const (
	SheetSummary           = "Summary"
	SheetExpenses          = "Expenses"
	SheetBudgetAnalysis    = "Budget Analysis"
	SheetCategoryBreakdown = "Category Breakdown"
	SheetMonthlyTrends     = "Monthly Trends"

	noDescription = "No description"
)

// SheetOrder lists every sheet a report can carry, in output order.
var SheetOrder = []string{SheetSummary, SheetExpenses, SheetBudgetAnalysis, SheetCategoryBreakdown, SheetMonthlyTrends}

var ErrInvalidRange = errors.New("start date must be on or before end date")

// Sheet is a named table. Cells are strings, ints or float64 amounts; a nil
// row entry is an empty cell and an empty row is a blank line.
type Sheet struct {
	Name string
	Rows [][]any
}

// Report is an ordered set of sheets plus the download filename.
type Report struct {
	UserID   string
	Filename string
	Start    core.Date
	End      core.Date
	Sheets   []Sheet
}

// Sheet looks a sheet up by name.
func (r Report) Sheet(name string) (Sheet, bool) {
	for _, s := range r.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// SheetNames lists sheet names in order.
func (r Report) SheetNames() []string {
	names := make([]string, len(r.Sheets))
	for i, s := range r.Sheets {
		names[i] = s.Name
	}
	return names
}

// ReportData is everything the assembler needs. Expenses are expected newest
// first, as the store returns them.
type ReportData struct {
	UserID        string
	Expenses      []core.ExpenseDetail
	Budgets       []core.BudgetOverview
	MonthlyTrends []core.MonthlySummary
	Currency      core.Currency
	Timezone      string
	Start         core.Date
	End           core.Date
	GeneratedAt   time.Time
}

// ValidateRange checks that start is not after end.
func ValidateRange(start, end core.Date) error {
	if start.IsZero() || end.IsZero() {
		return core.ErrInvalidDate
	}
	if start.After(end.Time) {
		return ErrInvalidRange
	}
	return nil
}

// Filename returns Monthly_Report_<start>_to_<end>.xlsx.
func Filename(start, end core.Date) string {
	return fmt.Sprintf("Monthly_Report_%s_to_%s.xlsx", start.Format(core.DateLayout), end.Format(core.DateLayout))
}

// Assemble builds the report sheets. Budget Analysis and Monthly Trends are
// left out when there is nothing to put in them.
func Assemble(d ReportData) (Report, error) {
	if err := ValidateRange(d.Start, d.End); err != nil {
		return Report{}, err
	}
	d.Currency = d.Currency.OrDefault()
	if d.Timezone == "" {
		d.Timezone = core.DefaultTimezone
	}

	r := Report{UserID: d.UserID, Filename: Filename(d.Start, d.End), Start: d.Start, End: d.End}
	r.Sheets = append(r.Sheets, summarySheet(d), expensesSheet(d))
	if len(d.Budgets) > 0 {
		r.Sheets = append(r.Sheets, budgetSheet(d.Budgets))
	}
	r.Sheets = append(r.Sheets, categorySheet(d.Expenses))
	if len(d.MonthlyTrends) > 0 {
		r.Sheets = append(r.Sheets, trendsSheet(d.MonthlyTrends))
	}
	return r, nil
}

func totalSpent(expenses []core.ExpenseDetail) core.Money {
	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

func percentCell(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func summarySheet(d ReportData) Sheet {
	spent := totalSpent(d.Expenses)
	budgets := RollupBudgets(d.Budgets)
	transactions := len(d.Expenses)

	categories := make(map[string]struct{})
	for _, e := range d.Expenses {
		categories[e.CategoryName] = struct{}{}
	}

	remaining := budgets.TotalBudgeted.Sub(spent)
	if remaining.Cents < 0 {
		remaining = core.Money{}
	}
	usage := MoneyPercent(spent, budgets.TotalBudgeted)
	period := fmt.Sprintf("%s - %s", d.Start.Format(core.LongDateLayout), d.End.Format(core.LongDateLayout))

	return Sheet{Name: SheetSummary, Rows: [][]any{
		{"MONTHLY FINANCIAL REPORT"},
		{"Generated on:", core.FormatDateInTimezone(d.GeneratedAt, core.DateLayout, d.Timezone)},
		{"Report Period:", period},
		{"Currency:", string(d.Currency)},
		{"Timezone:", d.Timezone},
		{},
		{"SUMMARY STATISTICS"},
		{"Total Spent:", spent.Format(d.Currency)},
		{"Total Budget:", budgets.TotalBudgeted.Format(d.Currency)},
		{"Remaining Budget:", remaining.Format(d.Currency)},
		{"Budget Usage:", percentCell(usage)},
		{},
		{"TRANSACTION DETAILS"},
		{"Total Transactions:", transactions},
		{"Categories Used:", len(categories)},
		{"Average per Transaction:", spent.Div(transactions).Format(d.Currency)},
		{"Over-Budget Categories:", budgets.OverBudget},
		{},
		{"FINANCIAL HEALTH"},
		{"Budget Discipline:", BudgetDiscipline(budgets.OverBudget)},
		{"Spending Trend:", SpendingTrend(usage)},
		{"Activity Level:", ActivityLevel(transactions)},
	}}
}

func expensesSheet(d ReportData) Sheet {
	rows := make([][]any, 0, len(d.Expenses)+3)
	rows = append(rows, []any{"Date", "Category", "Description", "Amount", "Currency", "Day of Week", "Time Added"})
	for _, e := range d.Expenses {
		desc := e.Description
		if desc == "" {
			desc = noDescription
		}
		rows = append(rows, []any{
			e.Date.Format(core.DateLayout),
			e.CategoryName,
			desc,
			e.Amount.Float(),
			string(e.Currency),
			e.Date.Weekday().String(),
			core.FormatDateInTimezone(e.CreatedAt, core.TimeOfDayLayout, d.Timezone),
		})
	}
	rows = append(rows, []any{}, []any{"TOTAL", "", "", totalSpent(d.Expenses).Float(), string(d.Currency), "", ""})
	return Sheet{Name: SheetExpenses, Rows: rows}
}

func budgetSheet(budgets []core.BudgetOverview) Sheet {
	rows := make([][]any, 0, len(budgets)+7)
	rows = append(rows, []any{"Category", "Budget Amount", "Spent Amount", "Remaining", "Percentage Used", "Status", "Currency"})
	for _, b := range budgets {
		rows = append(rows, []any{
			b.CategoryName,
			b.BudgetAmount.Float(),
			b.SpentAmount.Float(),
			b.Remaining.Float(),
			percentCell(b.PercentageUsed),
			StatusLabel(b.PercentageUsed, b.IsOverBudget),
			string(b.Currency),
		})
	}
	rollup := RollupBudgets(budgets)
	rows = append(rows,
		[]any{},
		[]any{"BUDGET SUMMARY"},
		[]any{"Total Budget:", rollup.TotalBudgeted.Float()},
		[]any{"Total Spent:", rollup.TotalSpent.Float()},
		[]any{"Overall Usage:", percentCell(rollup.UsagePercent)},
		[]any{"Categories Over Budget:", rollup.OverBudget},
	)
	return Sheet{Name: SheetBudgetAnalysis, Rows: rows}
}

func categorySheet(expenses []core.ExpenseDetail) Sheet {
	total := totalSpent(expenses)
	cats := GroupByCategory(ExpenseRows(expenses))
	rows := make([][]any, 0, len(cats)+1)
	rows = append(rows, []any{"Category", "Total Spent", "Transaction Count", "Average per Transaction", "Percentage of Total", "Highest Single Expense", "Lowest Single Expense"})
	for _, c := range cats {
		rows = append(rows, []any{
			c.Name,
			c.Total.Float(),
			c.Count,
			c.Average().Float(),
			percentCell(MoneyPercent(c.Total, total)),
			c.Highest.Float(),
			c.Lowest.Float(),
		})
	}
	return Sheet{Name: SheetCategoryBreakdown, Rows: rows}
}

// SortTrends orders summaries by year, month and total, each descending.
func SortTrends(trends []core.MonthlySummary) []core.MonthlySummary {
	out := append([]core.MonthlySummary(nil), trends...)
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Year != out[b].Year {
			return out[a].Year > out[b].Year
		}
		if out[a].Month != out[b].Month {
			return out[a].Month > out[b].Month
		}
		return out[a].Total.Cents > out[b].Total.Cents
	})
	return out
}

func trendsSheet(trends []core.MonthlySummary) Sheet {
	sorted := SortTrends(trends)
	rows := make([][]any, 0, len(sorted)+1)
	rows = append(rows, []any{"Month", "Year", "Category", "Total Spent", "Transaction Count", "Average per Transaction"})
	for _, t := range sorted {
		rows = append(rows, []any{
			core.MonthName(t.Month),
			t.Year,
			t.CategoryName,
			t.Total.Float(),
			t.Count,
			t.Average.Float(),
		})
	}
	return Sheet{Name: SheetMonthlyTrends, Rows: rows}
}
