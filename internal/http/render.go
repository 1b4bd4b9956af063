package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/report"
)

// layoutTemplate wraps every full page.
const layoutTemplate = "layout"

// pageData is what every page template receives.
type pageData struct {
	Title  string
	Nav    string
	Email  string
	Errors core.ValidationErrors
	Form   url.Values
	Flash  string
	View   any
}

// HasError reports whether field failed validation.
func (p pageData) HasError(field string) bool {
	_, ok := p.Errors[field]
	return ok
}

// templateSet holds one parsed template tree per page so each page can
// define its own "content" block.
type templateSet struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"money":       func(m core.Money, c core.Currency) string { return m.Format(c) },
	"percent":     formatPercent,
	"progress":    formatProgress,
	"statusLabel": report.StatusLabel,
	"statusClass": statusClass,
	"monthName":   core.MonthName,
	"shortDate":   func(d core.Date) string { return d.Format(core.ShortDateLayout) },
	"dict":        dict,
}

func formatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f)
}

// formatProgress is the capped bar width for a usage percentage.
func formatProgress(f float64) string {
	return fmt.Sprintf("%.0f", report.ProgressPercent(f))
}

// statusClass turns a budget status label into a CSS class ("near-limit").
func statusClass(pct float64, over bool) string {
	return strings.ToLower(strings.ReplaceAll(report.StatusLabel(pct, over), " ", "-"))
}

// dict builds a map for passing several values to a sub-template.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict needs an even number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

// loadTemplates parses templates/layout.html and templates/partials/*.html
// together with each remaining templates/*.html page.
func loadTemplates(fsys fs.FS) (*templateSet, error) {
	pageFiles, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	shared := []string{"templates/layout.html"}
	if partials, _ := fs.Glob(fsys, "templates/partials/*.html"); len(partials) > 0 {
		shared = append(shared, partials...)
	}

	set := &templateSet{pages: make(map[string]*template.Template)}
	for _, file := range pageFiles {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "layout" {
			continue
		}
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, append(shared, file)...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		set.pages[name] = t
	}
	if len(set.pages) == 0 {
		return nil, errors.New("no page templates found")
	}
	return set, nil
}

// execute renders block of page into a buffer so a failing template never
// leaves a half-written response.
func (ts *templateSet) execute(page, block string, data any) ([]byte, error) {
	t, ok := ts.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// hasBlock reports whether page defines block.
func (ts *templateSet) hasBlock(page, block string) bool {
	t, ok := ts.pages[page]
	return ok && t.Lookup(block) != nil
}

// render writes page. HTMX requests targeting an element whose id names a
// block of the page get just that block; everything else gets the layout.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	block := layoutTemplate
	if target := r.Header.Get("HX-Target"); isHTMX(r) && target != "" && s.templates.hasBlock(page, target) {
		block = target
	}
	s.renderBlock(w, r, status, page, block, data)
}

// renderBlock writes one named block of page.
func (s *Server) renderBlock(w http.ResponseWriter, r *http.Request, status int, page, block string, data pageData) {
	if block == layoutTemplate && data.Email == "" {
		data.Email = s.currentEmail(r)
	}
	body, err := s.templates.execute(page, block, data)
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", page+"/"+block,
			log.FieldErrorType, log.ErrorTypeTemplate)
		http.Error(w, "Something went wrong rendering this page.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
