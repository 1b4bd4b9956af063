package http

import (
	"net/http"
)

// handleDashboard renders the current month in the user's timezone. The view
// model comes from the report service cache.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Reports.Dashboard(r.Context(), userID(r))
	if err != nil {
		s.internalError(w, r, err, "dashboard")
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", pageData{Title: "Dashboard", Nav: "dashboard", View: d})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Reports.Analytics(r.Context(), userID(r))
	if err != nil {
		s.internalError(w, r, err, "analytics")
		return
	}
	s.render(w, r, http.StatusOK, "analytics", pageData{Title: "Analytics", Nav: "analytics", View: a})
}
