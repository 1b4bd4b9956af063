// Package report turns expense and budget rows into the sheets of an
// exported report and the view models shown on the dashboard and
// analytics pages. Everything here is pure: no I/O, no clock.
package report

import (
	"sort"

	"spendwise/internal/core"
)

const (
	StatusOverBudget = "Over Budget"
	StatusNearLimit  = "Near Limit"
	StatusOnTrack    = "On Track"
)

// CategoryRow is the minimal shape folded by GroupByCategory.
type CategoryRow struct {
	Name     string
	Color    string
	Currency core.Currency
	Amount   core.Money
	Count    int
}

// CategoryTotal is one category after grouping.
type CategoryTotal struct {
	Name     string
	Color    string
	Currency core.Currency
	Total    core.Money
	Count    int
	Highest  core.Money
	Lowest   core.Money
}

// Average returns Total/Count rounded to cents, or zero with no transactions.
func (c CategoryTotal) Average() core.Money {
	return c.Total.Div(c.Count)
}

// MonthTotal is a per (year, month) bucket.
type MonthTotal struct {
	Year  int
	Month int
	Total core.Money
	Count int
}

// BudgetStatus is what EvaluateBudget derives from a budget/spent pair.
type BudgetStatus struct {
	PercentageUsed float64
	Remaining      core.Money
	IsOverBudget   bool
	Label          string
}

// BudgetRollup accumulates a set of budget overview rows.
type BudgetRollup struct {
	Count         int
	TotalBudgeted core.Money
	TotalSpent    core.Money
	OverBudget    int
	NearLimit     int
	UsagePercent  float64
}

// ExpenseRows adapts expenses to CategoryRow, one transaction each.
func ExpenseRows(expenses []core.ExpenseDetail) []CategoryRow {
	rows := make([]CategoryRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, CategoryRow{
			Name:     e.CategoryName,
			Color:    e.CategoryColor,
			Currency: e.Currency,
			Amount:   e.Amount,
			Count:    1,
		})
	}
	return rows
}

// SummaryRows adapts monthly summaries to CategoryRow.
func SummaryRows(summaries []core.MonthlySummary) []CategoryRow {
	rows := make([]CategoryRow, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, CategoryRow{
			Name:     s.CategoryName,
			Color:    s.CategoryColor,
			Currency: s.Currency,
			Amount:   s.Total,
			Count:    s.Count,
		})
	}
	return rows
}

// GroupByCategory folds rows by category name. The first row seen for a name
// provides its color and currency. The result is sorted by total, descending;
// ties keep the order in which the names were first seen.
func GroupByCategory(rows []CategoryRow) []CategoryTotal {
	index := make(map[string]int, len(rows))
	out := make([]CategoryTotal, 0)
	for _, r := range rows {
		i, ok := index[r.Name]
		if !ok {
			i = len(out)
			index[r.Name] = i
			out = append(out, CategoryTotal{
				Name:     r.Name,
				Color:    r.Color,
				Currency: r.Currency,
				Highest:  r.Amount,
				Lowest:   r.Amount,
			})
		}
		ct := &out[i]
		ct.Total = ct.Total.Add(r.Amount)
		ct.Count += r.Count
		if r.Amount.Cents > ct.Highest.Cents {
			ct.Highest = r.Amount
		}
		if r.Amount.Cents < ct.Lowest.Cents {
			ct.Lowest = r.Amount
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Total.Cents > out[b].Total.Cents
	})
	return out
}

// GroupByMonth sums summaries per (year, month), oldest first.
func GroupByMonth(rows []core.MonthlySummary) []MonthTotal {
	type key struct{ year, month int }
	index := make(map[key]int)
	out := make([]MonthTotal, 0)
	for _, r := range rows {
		k := key{r.Year, r.Month}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, MonthTotal{Year: r.Year, Month: r.Month})
		}
		out[i].Total = out[i].Total.Add(r.Total)
		out[i].Count += r.Count
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Year != out[b].Year {
			return out[a].Year < out[b].Year
		}
		return out[a].Month < out[b].Month
	})
	return out
}

// SumTotals adds the totals of summaries.
func SumTotals(rows []core.MonthlySummary) core.Money {
	var total core.Money
	for _, r := range rows {
		total = total.Add(r.Total)
	}
	return total
}

// PercentChange returns (current-previous)/previous*100, or 0 when previous is 0.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// PercentOfTotal returns part/total*100, or 0 when total is 0.
func PercentOfTotal(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// MoneyPercent is PercentOfTotal over cents.
func MoneyPercent(part, total core.Money) float64 {
	return PercentOfTotal(float64(part.Cents), float64(total.Cents))
}

// EvaluateBudget derives usage from a budget and the amount spent against it.
// A zero budget reports 0% used and is never over budget.
func EvaluateBudget(budget, spent core.Money) BudgetStatus {
	st := BudgetStatus{}
	if budget.Cents > 0 {
		st.PercentageUsed = MoneyPercent(spent, budget)
		st.IsOverBudget = spent.Cents > budget.Cents
	}
	if rem := budget.Sub(spent); rem.Cents > 0 {
		st.Remaining = rem
	}
	st.Label = StatusLabel(st.PercentageUsed, st.IsOverBudget)
	return st
}

// StatusLabel classifies a single budget.
func StatusLabel(percentageUsed float64, over bool) string {
	switch {
	case over:
		return StatusOverBudget
	case percentageUsed >= core.NearLimitPercent:
		return StatusNearLimit
	default:
		return StatusOnTrack
	}
}

// ApplyBudgetStatus fills the derived fields of an overview row from its amounts.
func ApplyBudgetStatus(row *core.BudgetOverview) {
	st := EvaluateBudget(row.BudgetAmount, row.SpentAmount)
	row.PercentageUsed = st.PercentageUsed
	row.Remaining = st.Remaining
	row.IsOverBudget = st.IsOverBudget
}

// RollupBudgets totals budget rows. Over-budget comes from the row flag;
// near-limit counts rows at or above 80% that are not over.
func RollupBudgets(rows []core.BudgetOverview) BudgetRollup {
	r := BudgetRollup{Count: len(rows)}
	for _, b := range rows {
		r.TotalBudgeted = r.TotalBudgeted.Add(b.BudgetAmount)
		r.TotalSpent = r.TotalSpent.Add(b.SpentAmount)
		switch {
		case b.IsOverBudget:
			r.OverBudget++
		case b.PercentageUsed >= core.NearLimitPercent:
			r.NearLimit++
		}
	}
	r.UsagePercent = MoneyPercent(r.TotalSpent, r.TotalBudgeted)
	return r
}

// SortByUsage returns a copy of rows ordered by percentage used, highest first.
func SortByUsage(rows []core.BudgetOverview) []core.BudgetOverview {
	out := append([]core.BudgetOverview(nil), rows...)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].PercentageUsed > out[b].PercentageUsed
	})
	return out
}

// ProgressPercent caps a usage percentage for progress bars.
func ProgressPercent(pct float64) float64 {
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
