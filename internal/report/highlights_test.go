package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"spendwise/internal/core"
)

func TestMonthOverMonth(t *testing.T) {
	current := []core.MonthlySummary{
		{CategoryName: "Food", Total: cents(30000), Count: 6},
		{CategoryName: "Travel", Total: cents(10000), Count: 1},
	}
	previous := []core.MonthlySummary{
		{CategoryName: "Food", Total: cents(20000), Count: 4},
	}
	budgets := []core.BudgetOverview{
		{BudgetAmount: cents(25000), SpentAmount: cents(30000), PercentageUsed: 120, IsOverBudget: true},
		{BudgetAmount: cents(25000), SpentAmount: cents(10000), PercentageUsed: 40},
	}
	h := MonthOverMonth(current, previous, budgets)

	assert.Equal(t, int64(40000), h.CurrentTotal.Cents)
	assert.Equal(t, 100.0, h.MonthChange)
	assert.Equal(t, int64(20000), h.MonthDelta.Cents)
	assert.True(t, h.Increased)
	assert.True(t, h.HasTopCategory())
	assert.Equal(t, "Food", h.TopCategory)
	assert.Equal(t, 75.0, h.TopCategoryShare)
	assert.Equal(t, 1, h.Budgets.OverBudget)
	assert.Equal(t, StatusNearLimit, h.Performance)
}

func TestMonthOverMonthEmpty(t *testing.T) {
	h := MonthOverMonth(nil, nil, nil)
	assert.Equal(t, 0.0, h.MonthChange)
	assert.False(t, h.HasTopCategory())
	assert.Equal(t, StatusOnTrack, h.Performance)
}

func TestMonthOverMonthDecrease(t *testing.T) {
	h := MonthOverMonth(
		[]core.MonthlySummary{{CategoryName: "Food", Total: cents(5000)}},
		[]core.MonthlySummary{{CategoryName: "Food", Total: cents(10000)}},
		nil,
	)
	assert.Equal(t, -50.0, h.MonthChange)
	assert.Equal(t, int64(5000), h.MonthDelta.Cents)
	assert.False(t, h.Increased)
}

func TestDashboardTotals(t *testing.T) {
	d := NewDashboardTotals(
		[]core.MonthlySummary{
			{CategoryName: "Food", Total: cents(3550), Count: 2},
			{CategoryName: "Transport", Total: cents(4000), Count: 1},
		},
		[]core.BudgetOverview{{BudgetAmount: cents(10000), SpentAmount: cents(3550)}},
	)
	assert.Equal(t, int64(7550), d.TotalSpent.Cents)
	assert.Equal(t, 3, d.ExpenseCount)
	assert.Equal(t, 2, d.CategoriesUsed)
	assert.Equal(t, int64(2450), d.Remaining.Cents)
	assert.Equal(t, 75.5, d.UsagePercent)
}

func TestBands(t *testing.T) {
	assert.Equal(t, "Excellent", BudgetDiscipline(0))
	assert.Equal(t, "Good", BudgetDiscipline(2))
	assert.Equal(t, "Needs Improvement", BudgetDiscipline(3))

	assert.Equal(t, StatusOnTrack, SpendingTrend(79.9))
	assert.Equal(t, StatusNearLimit, SpendingTrend(80))
	assert.Equal(t, StatusNearLimit, SpendingTrend(99.9))
	assert.Equal(t, StatusOverBudget, SpendingTrend(100))

	assert.Equal(t, "Low", ActivityLevel(10))
	assert.Equal(t, "Medium", ActivityLevel(11))
	assert.Equal(t, "Medium", ActivityLevel(20))
	assert.Equal(t, "High", ActivityLevel(21))
}
