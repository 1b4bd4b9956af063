package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerExpensesChanged(2024, 3).
		TriggerFormReset().
		TriggerSuccessNotification("Expense saved.").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("HX-Trigger header not set")
	}

	var events map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trigger), &events); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v (%s)", err, trigger)
	}
	for _, name := range []string{EventExpensesChanged, EventFormReset, EventNotification} {
		if _, ok := events[name]; !ok {
			t.Errorf("HX-Trigger missing %q: %s", name, trigger)
		}
	}

	var changed struct{ Year, Month int }
	if err := json.Unmarshal(events[EventExpensesChanged], &changed); err != nil {
		t.Fatalf("expenses:changed payload: %v", err)
	}
	if changed.Year != 2024 || changed.Month != 3 {
		t.Errorf("expenses:changed = %+v, want 2024/3", changed)
	}

	var note struct {
		Type     string `json:"type"`
		Message  string `json:"message"`
		Duration int    `json:"duration"`
	}
	if err := json.Unmarshal(events[EventNotification], &note); err != nil {
		t.Fatalf("notification payload: %v", err)
	}
	if note.Type != "success" || note.Message != "Expense saved." || note.Duration != 3000 {
		t.Errorf("notification = %+v", note)
	}
}

func TestHTMXResponseBuilder_ListTriggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerBudgetsChanged(2023, 12).
		TriggerCategoriesChanged().
		TriggerSettingsSaved().
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	for _, part := range []string{`"budgets:changed"`, `"categories:changed"`, `"settings:saved"`, `"year":2023`, `"month":12`} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %s: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilder_NoTriggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().BodyString("plain").Write(w)

	if got := w.Header().Get("HX-Trigger"); got != "" {
		t.Errorf("HX-Trigger = %q, want empty", got)
	}
}

func TestHTMXResponseBuilder_CustomHeaderAndRedirect(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("X-Custom", "value").
		Redirect("/dashboard").
		Write(w)

	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q, want %q", got, "value")
	}
	if got := w.Header().Get("HX-Redirect"); got != "/dashboard" {
		t.Errorf("HX-Redirect = %q, want %q", got, "/dashboard")
	}
}

func TestHTMXResponseBuilder_WriteHeaders(t *testing.T) {
	w := httptest.NewRecorder()

	b := NewHTMXResponse().
		Status(http.StatusAccepted).
		TriggerFormReset()
	b.WriteHeaders(w)

	if w.Header().Get("HX-Trigger") == "" {
		t.Error("WriteHeaders did not set HX-Trigger")
	}
	if b.StatusCode() != http.StatusAccepted {
		t.Errorf("StatusCode() = %d, want %d", b.StatusCode(), http.StatusAccepted)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		build  func(string) *HTMXResponseBuilder
		status int
	}{
		{"bad request", BadRequestError, http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError, http.StatusUnprocessableEntity},
		{"not found", NotFoundError, http.StatusNotFound},
		{"conflict", ConflictError, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.build(`<script>alert("x")</script>`).Write(w)

			if w.Code != tt.status {
				t.Errorf("Status = %d, want %d", w.Code, tt.status)
			}
			body := w.Body.String()
			if strings.Contains(body, "<script>") {
				t.Errorf("message not escaped: %s", body)
			}
			if !strings.Contains(body, `class="error"`) {
				t.Errorf("body missing error markup: %s", body)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestInternalServerError(t *testing.T) {
	w := httptest.NewRecorder()

	InternalServerError("Something went wrong").Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty so the form stays populated", w.Body.String())
	}
	trigger := w.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"type":"error"`) || !strings.Contains(trigger, "Something went wrong") {
		t.Errorf("HX-Trigger = %s", trigger)
	}
}
