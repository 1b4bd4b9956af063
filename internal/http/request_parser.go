// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// month selectors, report date ranges, form values and input sanitization.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/report"
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// Prev returns the month before p.
func (p MonthParams) Prev() MonthParams {
	if p.Month == 1 {
		return MonthParams{Year: p.Year - 1, Month: 12}
	}
	return MonthParams{Year: p.Year, Month: p.Month - 1}
}

// Next returns the month after p.
func (p MonthParams) Next() MonthParams {
	if p.Month == 12 {
		return MonthParams{Year: p.Year + 1, Month: 1}
	}
	return MonthParams{Year: p.Year, Month: p.Month + 1}
}

// Label renders "March 2024".
func (p MonthParams) Label() string {
	return core.MonthName(p.Month) + " " + strconv.Itoa(p.Year)
}

// ParseMonthParams extracts year and month from query parameters. Missing or
// out-of-range values fall back to today's month.
func ParseMonthParams(query url.Values, today core.Date) MonthParams {
	params := MonthParams{Year: today.Year(), Month: today.Month()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= core.MinBudgetYear && y <= core.MaxBudgetYear {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = m
		}
	}
	return params
}

// RangeParams is the date range of a report request.
type RangeParams struct {
	Preset string
	Start  core.Date
	End    core.Date
}

// ParseRangeParams reads either explicit start/end dates or a preset. Explicit
// dates win when both are given; no parameters means the current month.
func ParseRangeParams(query url.Values, now time.Time, tz string) (RangeParams, error) {
	startStr := strings.TrimSpace(query.Get("start"))
	endStr := strings.TrimSpace(query.Get("end"))

	if startStr != "" || endStr != "" {
		errs := core.ValidationErrors{}
		start, err := core.ParseInputDate(startStr)
		errs.AddErr("start", err)
		end, err := core.ParseInputDate(endStr)
		errs.AddErr("end", err)
		if err := errs.Err(); err != nil {
			return RangeParams{}, err
		}
		if err := report.ValidateRange(start, end); err != nil {
			return RangeParams{}, err
		}
		return RangeParams{Start: start, End: end}, nil
	}

	preset := strings.TrimSpace(query.Get("preset"))
	start, end, err := report.PresetRange(preset, now, tz)
	if err != nil {
		return RangeParams{}, err
	}
	if preset == "" {
		preset = report.PresetCurrentMonth
	}
	return RangeParams{Preset: preset, Start: start, End: end}, nil
}

// Query renders the range back into query parameters.
func (p RangeParams) Query() string {
	v := url.Values{}
	v.Set("start", p.Start.String())
	v.Set("end", p.End.String())
	return v.Encode()
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}

// formValue returns the sanitized form value for key.
func formValue(r *http.Request, key string) string {
	return sanitizeInput(r.FormValue(key))
}

// formInt parses an integer form value, returning def when missing or invalid.
func formInt(r *http.Request, key string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key))); err == nil {
		return n
	}
	return def
}

// formBool reads a checkbox.
func formBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(key))) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// isHTMX reports whether r was issued by htmx rather than a full navigation.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-Boosted") != "true"
}
