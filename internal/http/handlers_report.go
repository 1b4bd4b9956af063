package http

import (
	"errors"
	"net/http"
	"strconv"

	"spendwise/internal/log"
	"spendwise/internal/report"
	"spendwise/internal/services"
	"spendwise/internal/sheets/xlsx"
)

type reportsView struct {
	Presets []report.Preset
	Range   RangeParams
	Preview *report.Preview
}

// reportRange reads the requested range in the user's timezone.
func (s *Server) reportRange(r *http.Request) (RangeParams, error) {
	settings, err := s.svc.Settings.Get(r.Context(), userID(r))
	if err != nil {
		return RangeParams{}, err
	}
	return ParseRangeParams(r.URL.Query(), s.now(), settings.Timezone)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	rng, err := s.reportRange(r)
	if err != nil {
		s.formFailed(w, r, "reports", "report-preview", pageData{Title: "Reports", Nav: "reports", View: reportsView{Presets: report.Presets}}, err, "reports_page")
		return
	}
	p, err := s.svc.Reports.Preview(r.Context(), userID(r), rng.Start, rng.End)
	if err != nil {
		s.internalError(w, r, err, "report_preview")
		return
	}
	v := reportsView{Presets: report.Presets, Range: rng, Preview: &p}
	s.render(w, r, http.StatusOK, "reports", pageData{Title: "Reports", Nav: "reports", View: v})
}

// handleReportPreview renders only the preview panel for the chosen range.
func (s *Server) handleReportPreview(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Reports", Nav: "reports", View: reportsView{Presets: report.Presets}}
	rng, err := s.reportRange(r)
	if err == nil {
		var p report.Preview
		p, err = s.svc.Reports.Preview(r.Context(), userID(r), rng.Start, rng.End)
		data.View = reportsView{Presets: report.Presets, Range: rng, Preview: &p}
	}
	if err != nil {
		s.formFailed(w, r, "reports", "report-preview", data, err, "report_preview")
		return
	}
	s.renderBlock(w, r, http.StatusOK, "reports", "report-preview", data)
}

// handleReportDownload streams the report as an .xlsx attachment.
func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	rng, err := s.reportRange(r)
	if err != nil {
		status, fields := classifyError(err)
		if fields == nil {
			s.internalError(w, r, err, "report_download")
			return
		}
		ErrorResponse(status, fieldMessages(fields)).Write(w)
		return
	}

	rep, err := s.svc.Reports.Generate(r.Context(), uid, rng.Start, rng.End)
	if err != nil {
		s.internalError(w, r, err, "report_generate")
		return
	}
	body, err := xlsx.Encode(rep)
	if err != nil {
		s.internalError(w, r, err, "report_encode")
		return
	}
	s.events.LogReportGenerated(r.Context(), uid, rng.Start.String(), rng.End.String(), len(rep.Sheets), rep.Filename)

	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+rep.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleReportExport queues a Google Sheets export for the worker.
func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	uid := userID(r)
	r.URL.RawQuery = r.Form.Encode()
	rng, err := s.reportRange(r)
	if err == nil {
		err = s.svc.Reports.RequestExport(r.Context(), uid, rng.Start, rng.End)
	}
	switch {
	case errors.Is(err, services.ErrExportUnavailable):
		ErrorResponse(http.StatusServiceUnavailable, "Google Sheets export is not configured.").Write(w)
		return
	case err != nil:
		status, fields := classifyError(err)
		if fields == nil {
			s.internalError(w, r, err, "report_export")
			return
		}
		ErrorResponse(status, fieldMessages(fields)).Write(w)
		return
	}

	s.metrics.exportsRequested.Add(1)
	log.FromContext(r.Context()).WithComponent(log.ComponentReport).InfoContext(r.Context(), "Report export queued",
		log.FieldUserID, uid,
		log.FieldRangeStart, rng.Start.String(),
		log.FieldRangeEnd, rng.End.String())

	NewHTMXResponse().
		Status(http.StatusAccepted).
		TriggerSuccessNotification("Export queued. The spreadsheet will update shortly.").
		Write(w)
}
