package core

import (
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	// DefaultTimezone is used when a user has no valid timezone configured.
	DefaultTimezone = "America/Halifax"

	DateLayout       = "2006-01-02"
	LongDateLayout   = "January 2, 2006"
	ShortDateLayout  = "Jan 02, 2006"
	TimeOfDayLayout  = "15:04"
	monthNameRefYear = 2024
)

// LoadLocation resolves an IANA zone, falling back to DefaultTimezone
// and finally UTC when the zone database is unavailable.
func LoadLocation(tz string) *time.Location {
	if tz = strings.TrimSpace(tz); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// FormatDateInTimezone converts t into tz before formatting it with layout.
// An empty or unknown tz uses DefaultTimezone.
func FormatDateInTimezone(t time.Time, layout, tz string) string {
	return t.In(LoadLocation(tz)).Format(layout)
}

// MonthName returns the English name of a 1-based month, or "" when out of range.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return time.Date(monthNameRefYear, time.Month(m), 1, 0, 0, 0, 0, time.UTC).Month().String()
}

// MonthBounds returns the first and last calendar day of t's month in tz.
func MonthBounds(t time.Time, tz string) (Date, Date) {
	local := t.In(LoadLocation(tz))
	first := NewDate(local.Year(), int(local.Month()), 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}

// WeekBounds returns the Monday and Sunday of the week containing t in tz.
func WeekBounds(t time.Time, tz string) (Date, Date) {
	local := t.In(LoadLocation(tz))
	day := NewDate(local.Year(), int(local.Month()), local.Day())
	offset := (int(day.Weekday()) + 6) % 7
	monday := Date{Time: day.AddDate(0, 0, -offset)}
	return monday, Date{Time: monday.AddDate(0, 0, 6)}
}

// Today returns the current calendar date in tz.
func Today(now time.Time, tz string) Date {
	local := now.In(LoadLocation(tz))
	return NewDate(local.Year(), int(local.Month()), local.Day())
}

// FormatDateForInput renders t for an <input type="date">.
func FormatDateForInput(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseInputDate parses the value of an <input type="date">.
func ParseInputDate(s string) (Date, error) {
	return ParseDate(s)
}
