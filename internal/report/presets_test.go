package report

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
)

func TestPresetRange(t *testing.T) {
	now := time.Date(2024, 5, 15, 15, 0, 0, 0, time.UTC)
	cases := []struct {
		preset     string
		start, end string
	}{
		{PresetCurrentMonth, "2024-05-01", "2024-05-31"},
		{"", "2024-05-01", "2024-05-31"},
		{PresetLastMonth, "2024-04-01", "2024-04-30"},
		{PresetLast3Months, "2024-03-01", "2024-05-15"},
		{PresetLast6Months, "2023-12-01", "2024-05-15"},
		{PresetYearToDate, "2024-01-01", "2024-05-15"},
	}
	for _, tc := range cases {
		start, end, err := PresetRange(tc.preset, now, "America/Halifax")
		require.NoError(t, err, tc.preset)
		assert.Equal(t, tc.start, start.String(), tc.preset)
		assert.Equal(t, tc.end, end.String(), tc.preset)
		assert.NoError(t, ValidateRange(start, end))
	}

	_, _, err := PresetRange("last-decade", now, "")
	assert.True(t, errors.Is(err, ErrUnknownPreset))
}

func TestPresetRangeUsesUserTimezone(t *testing.T) {
	// 01:00 UTC on June 1st is still May 31st in Halifax
	now := time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC)
	start, _, err := PresetRange(PresetCurrentMonth, now, "America/Halifax")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", start.String())
}

func TestLastMonthAcrossYear(t *testing.T) {
	start, end, err := PresetRange(PresetLastMonth, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC), "UTC")
	require.NoError(t, err)
	assert.Equal(t, "2023-12-01", start.String())
	assert.Equal(t, "2023-12-31", end.String())
}

func TestNewPreview(t *testing.T) {
	p := NewPreview(sampleData().Expenses, []core.BudgetOverview{{}, {}}, core.NewDate(2024, 2, 1), core.NewDate(2024, 3, 31))
	assert.Equal(t, 3, p.ExpenseCount)
	assert.Equal(t, 2, p.CategoryCount)
	assert.Equal(t, 2, p.BudgetCount)
	assert.Equal(t, "Feb 01, 2024 - Mar 31, 2024", p.Range)
}
