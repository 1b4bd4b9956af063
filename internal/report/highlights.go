package report

import "spendwise/internal/core"

// DashboardTotals is the current-month card on the dashboard.
type DashboardTotals struct {
	TotalSpent     core.Money
	ExpenseCount   int
	CategoriesUsed int
	TotalBudget    core.Money
	Remaining      core.Money
	UsagePercent   float64
}

// Highlights compares this month with the previous one.
type Highlights struct {
	CurrentTotal  core.Money
	PreviousTotal core.Money
	MonthChange   float64
	MonthDelta    core.Money
	Increased     bool

	TopCategory      string
	TopCategoryColor string
	TopCategoryTotal core.Money
	TopCategoryShare float64

	Budgets     BudgetRollup
	Performance string
}

// HasTopCategory reports whether anything was spent this month.
func (h Highlights) HasTopCategory() bool {
	return h.TopCategory != ""
}

// NewDashboardTotals builds the current-month card from the month's summaries
// and budget overview rows.
func NewDashboardTotals(summaries []core.MonthlySummary, budgets []core.BudgetOverview) DashboardTotals {
	d := DashboardTotals{TotalSpent: SumTotals(summaries)}
	names := make(map[string]struct{})
	for _, s := range summaries {
		d.ExpenseCount += s.Count
		names[s.CategoryName] = struct{}{}
	}
	d.CategoriesUsed = len(names)
	rollup := RollupBudgets(budgets)
	d.TotalBudget = rollup.TotalBudgeted
	if rem := rollup.TotalBudgeted.Sub(d.TotalSpent); rem.Cents > 0 {
		d.Remaining = rem
	}
	d.UsagePercent = MoneyPercent(d.TotalSpent, d.TotalBudget)
	return d
}

// MonthOverMonth builds the financial highlights card.
func MonthOverMonth(current, previous []core.MonthlySummary, budgets []core.BudgetOverview) Highlights {
	h := Highlights{
		CurrentTotal:  SumTotals(current),
		PreviousTotal: SumTotals(previous),
	}
	h.MonthDelta = h.CurrentTotal.Sub(h.PreviousTotal)
	h.Increased = h.MonthDelta.Cents > 0
	if h.MonthDelta.Cents < 0 {
		h.MonthDelta = core.Money{Cents: -h.MonthDelta.Cents}
	}
	h.MonthChange = PercentChange(h.CurrentTotal.Float(), h.PreviousTotal.Float())

	if cats := GroupByCategory(SummaryRows(current)); len(cats) > 0 {
		top := cats[0]
		h.TopCategory = top.Name
		h.TopCategoryColor = top.Color
		h.TopCategoryTotal = top.Total
		h.TopCategoryShare = MoneyPercent(top.Total, h.CurrentTotal)
	}

	h.Budgets = RollupBudgets(budgets)
	h.Performance = SpendingTrend(h.Budgets.UsagePercent)
	return h
}

// BudgetDiscipline grades a count of over-budget categories.
func BudgetDiscipline(overBudget int) string {
	switch {
	case overBudget == 0:
		return "Excellent"
	case overBudget <= 2:
		return "Good"
	default:
		return "Needs Improvement"
	}
}

// SpendingTrend grades overall budget usage.
func SpendingTrend(usagePercent float64) string {
	switch {
	case usagePercent < core.NearLimitPercent:
		return StatusOnTrack
	case usagePercent < 100:
		return StatusNearLimit
	default:
		return StatusOverBudget
	}
}

// ActivityLevel grades a transaction count.
func ActivityLevel(transactions int) string {
	switch {
	case transactions > 20:
		return "High"
	case transactions > 10:
		return "Medium"
	default:
		return "Low"
	}
}
