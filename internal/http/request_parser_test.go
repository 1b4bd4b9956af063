package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/report"
)

func TestParseMonthParams(t *testing.T) {
	today := core.NewDate(2024, 3, 15)

	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth int
	}{
		{"defaults to today", url.Values{}, 2024, 3},
		{"explicit values", url.Values{"year": {"2023"}, "month": {"12"}}, 2023, 12},
		{"invalid month ignored", url.Values{"year": {"2023"}, "month": {"13"}}, 2023, 3},
		{"non numeric ignored", url.Values{"year": {"abc"}, "month": {"x"}}, 2024, 3},
		{"year out of range ignored", url.Values{"year": {"1999"}, "month": {"5"}}, 2024, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMonthParams(tt.query, today)
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("ParseMonthParams() = %d/%d, want %d/%d", got.Year, got.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestMonthParams_Navigation(t *testing.T) {
	jan := MonthParams{Year: 2024, Month: 1}
	if p := jan.Prev(); p.Year != 2023 || p.Month != 12 {
		t.Errorf("Prev() = %+v, want 2023/12", p)
	}
	dec := MonthParams{Year: 2023, Month: 12}
	if n := dec.Next(); n.Year != 2024 || n.Month != 1 {
		t.Errorf("Next() = %+v, want 2024/1", n)
	}
	if got := jan.Label(); got != "January 2024" {
		t.Errorf("Label() = %q", got)
	}
}

func TestParseRangeParams(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	tz := "America/Halifax"

	t.Run("no parameters is the current month", func(t *testing.T) {
		got, err := ParseRangeParams(url.Values{}, now, tz)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Preset != report.PresetCurrentMonth {
			t.Errorf("Preset = %q", got.Preset)
		}
		if got.Start.String() != "2024-03-01" || got.End.String() != "2024-03-31" {
			t.Errorf("range = %s..%s", got.Start, got.End)
		}
	})

	t.Run("preset", func(t *testing.T) {
		got, err := ParseRangeParams(url.Values{"preset": {report.PresetLastMonth}}, now, tz)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Start.String() != "2024-02-01" || got.End.String() != "2024-02-29" {
			t.Errorf("range = %s..%s", got.Start, got.End)
		}
	})

	t.Run("explicit dates win over preset", func(t *testing.T) {
		q := url.Values{"preset": {report.PresetYearToDate}, "start": {"2024-01-10"}, "end": {"2024-01-20"}}
		got, err := ParseRangeParams(q, now, tz)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Preset != "" || got.Start.String() != "2024-01-10" || got.End.String() != "2024-01-20" {
			t.Errorf("got %+v", got)
		}
		if got.Query() != "end=2024-01-20&start=2024-01-10" {
			t.Errorf("Query() = %q", got.Query())
		}
	})

	t.Run("bad dates are field errors", func(t *testing.T) {
		_, err := ParseRangeParams(url.Values{"start": {"2024-13-01"}}, now, tz)
		var verrs core.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("err = %v, want ValidationErrors", err)
		}
		if _, ok := verrs["start"]; !ok {
			t.Errorf("missing start error: %v", verrs)
		}
		if _, ok := verrs["end"]; !ok {
			t.Errorf("missing end error: %v", verrs)
		}
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := ParseRangeParams(url.Values{"start": {"2024-02-01"}, "end": {"2024-01-01"}}, now, tz)
		if !errors.Is(err, report.ErrInvalidRange) {
			t.Errorf("err = %v, want ErrInvalidRange", err)
		}
	})

	t.Run("unknown preset", func(t *testing.T) {
		_, err := ParseRangeParams(url.Values{"preset": {"forever"}}, now, tz)
		if !errors.Is(err, report.ErrUnknownPreset) {
			t.Errorf("err = %v, want ErrUnknownPreset", err)
		}
	})
}

func TestFormHelpers(t *testing.T) {
	form := url.Values{
		"description": {"  Coffee\x00 beans\x07  "},
		"threshold":   {"85"},
		"bad":         {"eighty"},
		"alerts":      {"on"},
	}
	r := httptest.NewRequest(http.MethodPost, "/settings", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if resp := ParseFormOrFail(r); resp != nil {
		t.Fatalf("ParseFormOrFail returned status %d", resp.StatusCode())
	}
	if got := formValue(r, "description"); got != "Coffee beans" {
		t.Errorf("formValue = %q", got)
	}
	if got := formInt(r, "threshold", 0); got != 85 {
		t.Errorf("formInt = %d", got)
	}
	if got := formInt(r, "bad", 80); got != 80 {
		t.Errorf("formInt fallback = %d", got)
	}
	if !formBool(r, "alerts") || formBool(r, "missing") {
		t.Error("formBool mismatch")
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello  ", "hello"},
		{"tab\there", "tab\there"},
		{"line\nbreak", "line\nbreak"},
		{"null\x00byte", "nullbyte"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsHTMX(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTMX(r) {
		t.Error("plain request reported as htmx")
	}
	r.Header.Set("HX-Request", "true")
	if !isHTMX(r) {
		t.Error("htmx request not detected")
	}
	r.Header.Set("HX-Boosted", "true")
	if isHTMX(r) {
		t.Error("boosted navigation should render full pages")
	}
}
