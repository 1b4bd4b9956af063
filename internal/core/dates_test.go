package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDateInTimezone(t *testing.T) {
	ts := time.Date(2024, 3, 1, 2, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-02-29 22:30", FormatDateInTimezone(ts, "2006-01-02 15:04", "America/Halifax"))
	assert.Equal(t, "2024-03-01 11:30", FormatDateInTimezone(ts, "2006-01-02 15:04", "Asia/Tokyo"))
	// unknown zones use the default
	assert.Equal(t, "2024-02-29 22:30", FormatDateInTimezone(ts, "2006-01-02 15:04", "Mars/Olympus"))
	assert.Equal(t, "2024-02-29 22:30", FormatDateInTimezone(ts, "2006-01-02 15:04", ""))
}

func TestCalendarDateIgnoresTimezone(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", d.String())
	assert.Equal(t, "Friday", d.Weekday().String())
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "January", MonthName(1))
	assert.Equal(t, "December", MonthName(12))
	assert.Equal(t, "", MonthName(0))
	assert.Equal(t, "", MonthName(13))
}

func TestMonthBounds(t *testing.T) {
	first, last := MonthBounds(time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC), "America/Halifax")
	assert.Equal(t, "2024-02-01", first.String())
	assert.Equal(t, "2024-02-29", last.String())

	// 02:00 UTC on March 1st is still February in Halifax
	first, _ = MonthBounds(time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC), "America/Halifax")
	assert.Equal(t, "2024-02-01", first.String())
}

func TestWeekBounds(t *testing.T) {
	cases := []struct {
		now        time.Time
		start, end string
	}{
		{time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC), "2024-03-04", "2024-03-10"},  // Wednesday
		{time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC), "2024-03-04", "2024-03-10"},  // Monday
		{time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), "2024-03-04", "2024-03-10"}, // Sunday
		{time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC), "2024-12-30", "2025-01-05"},
	}
	for _, tc := range cases {
		start, end := WeekBounds(tc.now, "America/Halifax")
		assert.Equal(t, tc.start, start.String(), tc.now)
		assert.Equal(t, tc.end, end.String(), tc.now)
	}
}

func TestInputDates(t *testing.T) {
	assert.Equal(t, "2025-01-09", FormatDateForInput(time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)))
	_, err := ParseInputDate("2025-13-01")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseInputDate("09/01/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
