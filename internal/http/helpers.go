package http

import (
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/report"
	"spendwise/internal/services"
	"spendwise/internal/storage"
)

// conflictFields maps domain conflicts to the form field they belong to.
var conflictFields = map[error]string{
	services.ErrEmailTaken:        "email",
	services.ErrDuplicateBudget:   "category_id",
	services.ErrDuplicateCategory: "name",
	services.ErrCategoryInUse:     "reassign_to",
	services.ErrDefaultCategory:   "reassign_to",
	services.ErrInvalidReassign:   "reassign_to",
}

// classifyError turns a service error into a status code and, for errors the
// user can fix, field errors to show next to the form.
func classifyError(err error) (int, core.ValidationErrors) {
	var verrs core.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusUnprocessableEntity, verrs
	}
	for target, field := range conflictFields {
		if errors.Is(err, target) {
			return http.StatusConflict, core.ValidationErrors{field: target.Error()}
		}
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, nil
	case errors.Is(err, report.ErrInvalidRange):
		return http.StatusUnprocessableEntity, core.ValidationErrors{"end": err.Error()}
	case errors.Is(err, report.ErrUnknownPreset):
		return http.StatusUnprocessableEntity, core.ValidationErrors{"preset": err.Error()}
	}
	return http.StatusInternalServerError, nil
}

// formFailed handles an error from a form submission. Fixable errors
// re-render the page's form block with the submitted values; anything else
// becomes a notification.
func (s *Server) formFailed(w http.ResponseWriter, r *http.Request, page, block string, data pageData, err error, operation string) {
	status, fieldErrs := classifyError(err)
	switch {
	case fieldErrs != nil:
		data.Errors = fieldErrs
		data.Form = r.Form
		if data.Form == nil {
			data.Form = r.URL.Query()
		}
		if isHTMX(r) {
			s.renderBlock(w, r, status, page, block, data)
			return
		}
		s.renderBlock(w, r, status, page, layoutTemplate, data)
	case status == http.StatusNotFound:
		s.notFound(w, r)
	default:
		s.internalError(w, r, err, operation)
	}
}

// internalError logs err and reports a generic failure.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	s.events.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, operation,
		log.NewFields().WithUser(userID(r)).WithErrorType(log.ErrorTypeInternal))
	InternalServerError("Something went wrong. Please try again.").Write(w)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		NotFoundError("Not found").Write(w)
		return
	}
	s.renderBlock(w, r, http.StatusNotFound, "not_found", layoutTemplate, pageData{Title: "Not Found"})
}

// succeeded finishes a successful write. HTMX requests get the builder's
// triggers and an empty body that replaces nothing; plain form posts are
// redirected to target.
func succeeded(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, target string) {
	if isHTMX(r) {
		resp.Header("HX-Reswap", "none").Write(w)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// monthURL is path with year and month query parameters.
func monthURL(path string, year, month int) string {
	v := url.Values{}
	v.Set("year", strconv.Itoa(year))
	v.Set("month", strconv.Itoa(month))
	return path + "?" + v.Encode()
}

// fieldMessages joins field errors into one line for responses without a form.
func fieldMessages(errs core.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, m := range errs {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
