package report

import (
	"math"

	"spendwise/internal/core"
)

// EstimatedDiscipline is shown when no budget months have been tracked yet.
const EstimatedDiscipline = 85

// AnalyticsInput is what the analytics page loads.
type AnalyticsInput struct {
	Year     int
	ThisYear []core.MonthlySummary
	LastYear []core.MonthlySummary
	AllTime  []core.MonthlySummary
	Budgets  []core.BudgetOverview // most recent first, at most 12
	Currency core.Currency
}

// MonthBreakdown is one month of the current year.
type MonthBreakdown struct {
	Month int
	Name  string
	Total core.Money
	Count int
}

// Analytics is the analytics page view model.
type Analytics struct {
	Year             int
	Currency         core.Currency
	ThisYearTotal    core.Money
	LastYearTotal    core.Money
	YearOverYear     float64
	AllTimeTotal     core.Money
	Categories       []CategoryTotal
	TopCategory      string
	TopCategoryTotal core.Money
	TopCategoryShare float64

	TotalBudgeted    core.Money
	TotalSpent       core.Money
	MonthsTracked    int
	MonthsOverBudget int
	BudgetAccuracy   float64

	DisciplineScore     int
	DisciplineEstimated bool

	Months []MonthBreakdown
}

// TopCategoryLabel returns the top category name, or N/A.
func (a Analytics) TopCategoryLabel() string {
	if a.TopCategory == "" {
		return "N/A"
	}
	return a.TopCategory
}

// BuildAnalytics combines the year-over-year comparison, the all-time category
// merge and the budget discipline score.
func BuildAnalytics(in AnalyticsInput) Analytics {
	a := Analytics{
		Year:          in.Year,
		Currency:      in.Currency.OrDefault(),
		ThisYearTotal: SumTotals(in.ThisYear),
		LastYearTotal: SumTotals(in.LastYear),
		AllTimeTotal:  SumTotals(in.AllTime),
	}
	a.YearOverYear = PercentChange(a.ThisYearTotal.Float(), a.LastYearTotal.Float())

	a.Categories = GroupByCategory(SummaryRows(in.AllTime))
	if len(a.Categories) > 0 {
		top := a.Categories[0]
		a.TopCategory = top.Name
		a.TopCategoryTotal = top.Total
		a.TopCategoryShare = MoneyPercent(top.Total, a.AllTimeTotal)
	}

	for _, b := range in.Budgets {
		a.TotalBudgeted = a.TotalBudgeted.Add(b.BudgetAmount)
		a.TotalSpent = a.TotalSpent.Add(b.SpentAmount)
		a.MonthsTracked++
		if b.IsOverBudget {
			a.MonthsOverBudget++
		}
	}
	a.BudgetAccuracy = MoneyPercent(a.TotalSpent, a.TotalBudgeted)
	a.DisciplineScore, a.DisciplineEstimated = DisciplineScore(a.MonthsTracked, a.MonthsOverBudget)

	byMonth := make(map[int]MonthTotal)
	for _, m := range GroupByMonth(in.ThisYear) {
		byMonth[m.Month] = m
	}
	for m := 1; m <= 12; m++ {
		mt := byMonth[m]
		a.Months = append(a.Months, MonthBreakdown{Month: m, Name: core.MonthName(m), Total: mt.Total, Count: mt.Count})
	}
	return a
}

// DisciplineScore returns round((tracked-over)/tracked*100). With nothing
// tracked it returns EstimatedDiscipline and true.
func DisciplineScore(tracked, over int) (int, bool) {
	if tracked == 0 {
		return EstimatedDiscipline, true
	}
	return int(math.Round(float64(tracked-over) / float64(tracked) * 100)), false
}
