package http

import (
	"net/http"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/services"
)

// timezones offered in the settings form, in display order.
var timezones = []string{
	"America/St_Johns",
	"America/Halifax",
	"America/Toronto",
	"America/Winnipeg",
	"America/Edmonton",
	"America/Vancouver",
	"America/New_York",
	"America/Chicago",
	"America/Denver",
	"America/Los_Angeles",
	"Europe/London",
	"Europe/Paris",
	"Europe/Rome",
	"Asia/Tokyo",
	"Australia/Sydney",
	"UTC",
}

type settingsView struct {
	Settings   core.Settings
	Currencies []core.Currency
	Timezones  []string
	Weekdays   []time.Weekday
}

func newSettingsView(settings core.Settings) settingsView {
	days := make([]time.Weekday, 7)
	for i := range days {
		days[i] = time.Weekday(i)
	}
	return settingsView{
		Settings:   settings,
		Currencies: core.Currencies,
		Timezones:  timezones,
		Weekdays:   days,
	}
}

func (s *Server) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Settings.Get(r.Context(), userID(r))
	if err != nil {
		s.internalError(w, r, err, "get_settings")
		return
	}
	s.render(w, r, http.StatusOK, "settings", pageData{Title: "Settings", Nav: "settings", View: newSettingsView(settings)})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	uid := userID(r)
	in := services.SettingsInput{
		Timezone:            formValue(r, "timezone"),
		Currency:            formValue(r, "currency"),
		WeeklyDigestEnabled: formBool(r, "weekly_digest_enabled"),
		WeeklyDigestDay:     formInt(r, "weekly_digest_day", -1),
		EmailNotifications:  formBool(r, "email_notifications"),
		BudgetAlerts:        formBool(r, "budget_alerts"),
		BudgetThreshold:     formInt(r, "budget_threshold", 0),
	}
	settings, err := s.svc.Settings.Update(r.Context(), uid, in)
	if err != nil {
		current, gerr := s.svc.Settings.Get(r.Context(), uid)
		if gerr != nil {
			s.internalError(w, r, gerr, "update_settings")
			return
		}
		data := pageData{Title: "Settings", Nav: "settings", View: newSettingsView(current)}
		s.formFailed(w, r, "settings", "settings-form", data, err, "update_settings")
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Settings updated",
		log.FieldUserID, uid,
		"timezone", settings.Timezone,
		"currency", settings.Currency)
	s.svc.Reports.Invalidate(uid)

	resp := NewHTMXResponse().
		TriggerSettingsSaved().
		TriggerSuccessNotification("Settings saved.")
	succeeded(w, r, resp, "/settings")
}
