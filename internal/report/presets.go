package report

import (
	"errors"
	"fmt"
	"time"

	"spendwise/internal/core"
)

// Date-range presets offered on the reports page.
const (
	PresetCurrentMonth = "current-month"
	PresetLastMonth    = "last-month"
	PresetLast3Months  = "last-3-months"
	PresetLast6Months  = "last-6-months"
	PresetYearToDate   = "year-to-date"
)

var ErrUnknownPreset = errors.New("unknown date range preset")

// Preset is a named date range choice.
type Preset struct {
	Key   string
	Label string
}

var Presets = []Preset{
	{PresetCurrentMonth, "Current Month"},
	{PresetLastMonth, "Last Month"},
	{PresetLast3Months, "Last 3 Months"},
	{PresetLast6Months, "Last 6 Months"},
	{PresetYearToDate, "Year to Date"},
}

// PresetRange resolves a preset against now in the user's timezone.
// Multi-month presets start on the first of the earliest month and end today.
func PresetRange(preset string, now time.Time, tz string) (core.Date, core.Date, error) {
	today := core.Today(now, tz)
	first := core.NewDate(today.Year(), today.Month(), 1)
	endOfMonth := core.Date{Time: first.AddDate(0, 1, -1)}

	switch preset {
	case PresetCurrentMonth, "":
		return first, endOfMonth, nil
	case PresetLastMonth:
		start := core.Date{Time: first.AddDate(0, -1, 0)}
		return start, core.Date{Time: first.AddDate(0, 0, -1)}, nil
	case PresetLast3Months:
		return core.Date{Time: first.AddDate(0, -2, 0)}, today, nil
	case PresetLast6Months:
		return core.Date{Time: first.AddDate(0, -5, 0)}, today, nil
	case PresetYearToDate:
		return core.NewDate(today.Year(), 1, 1), today, nil
	default:
		return core.Date{}, core.Date{}, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
}

// Preview is the summary shown before a report is downloaded.
type Preview struct {
	ExpenseCount  int
	CategoryCount int
	BudgetCount   int
	Range         string
	Filename      string
}

// NewPreview summarizes what a report over [start, end] would contain.
func NewPreview(expenses []core.ExpenseDetail, budgets []core.BudgetOverview, start, end core.Date) Preview {
	names := make(map[string]struct{})
	for _, e := range expenses {
		names[e.CategoryName] = struct{}{}
	}
	return Preview{
		ExpenseCount:  len(expenses),
		CategoryCount: len(names),
		BudgetCount:   len(budgets),
		Range:         fmt.Sprintf("%s - %s", start.Format(core.ShortDateLayout), end.Format(core.ShortDateLayout)),
		Filename:      Filename(start, end),
	}
}
