package http

import (
	"net/http"
	"net/url"
	"strconv"

	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/report"
	"spendwise/internal/services"
)

// budgetsView is the budgets page for one month.
type budgetsView struct {
	Month     MonthParams
	Currency  core.Currency
	Budgets   []core.BudgetOverview
	Rollup    report.BudgetRollup
	Available []core.Category
}

func (s *Server) budgetsView(r *http.Request, month MonthParams, currency core.Currency) (budgetsView, error) {
	uid := userID(r)
	v := budgetsView{Month: month, Currency: currency}
	var err error
	if v.Budgets, v.Rollup, err = s.svc.Budgets.Overview(r.Context(), uid, month.Month, month.Year); err != nil {
		return budgetsView{}, err
	}
	if v.Available, err = s.svc.Budgets.AvailableCategories(r.Context(), uid, month.Month, month.Year); err != nil {
		return budgetsView{}, err
	}
	return v, nil
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	month, settings, err := s.monthFor(r)
	if err != nil {
		s.internalError(w, r, err, "list_budgets")
		return
	}
	v, err := s.budgetsView(r, month, settings.Currency)
	if err != nil {
		s.internalError(w, r, err, "list_budgets")
		return
	}
	s.render(w, r, http.StatusOK, "budgets", pageData{Title: "Budgets", Nav: "budgets", View: v})
}

// budgetFormFailed re-renders the budgets page for the month the form was
// submitted for.
func (s *Server) budgetFormFailed(w http.ResponseWriter, r *http.Request, month MonthParams, block string, err error, operation string) {
	if status, _ := classifyError(err); status == http.StatusNotFound || status == http.StatusInternalServerError {
		s.formFailed(w, r, "budgets", block, pageData{}, err, operation)
		return
	}
	settings, serr := s.svc.Settings.Get(r.Context(), userID(r))
	if serr != nil {
		s.internalError(w, r, serr, operation)
		return
	}
	v, verr := s.budgetsView(r, month, settings.Currency)
	if verr != nil {
		s.internalError(w, r, verr, operation)
		return
	}
	s.formFailed(w, r, "budgets", block, pageData{Title: "Budgets", Nav: "budgets", View: v}, err, operation)
}

// formMonth reads the year/month a budget form was submitted for.
func formMonth(r *http.Request, fallback MonthParams) MonthParams {
	return ParseMonthParams(url.Values{
		"year":  {r.FormValue("year")},
		"month": {r.FormValue("month")},
	}, core.NewDate(fallback.Year, fallback.Month, 1))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	uid := userID(r)
	current, _, err := s.monthFor(r)
	if err != nil {
		s.internalError(w, r, err, "create_budget")
		return
	}
	in := services.BudgetInput{
		CategoryID: formValue(r, "category_id"),
		Amount:     formValue(r, "amount"),
		Month:      formInt(r, "month", current.Month),
		Year:       formInt(r, "year", current.Year),
	}
	b, err := s.svc.Budgets.Create(r.Context(), uid, in)
	if err != nil {
		s.budgetFormFailed(w, r, formMonth(r, current), "budget-form", err, "create_budget")
		return
	}
	s.svc.Reports.Invalidate(uid)

	resp := NewHTMXResponse().
		TriggerBudgetsChanged(b.Year, b.Month).
		TriggerFormReset().
		TriggerSuccessNotification("Budget created for " + core.MonthName(b.Month) + " " + strconv.Itoa(b.Year) + ".")
	succeeded(w, r, resp, monthURL("/budgets", b.Year, b.Month))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	uid := userID(r)
	b, err := s.svc.Budgets.UpdateAmount(r.Context(), uid, r.PathValue("id"), formValue(r, "amount"))
	if err != nil {
		current, _, merr := s.monthFor(r)
		if merr != nil {
			s.internalError(w, r, merr, "update_budget")
			return
		}
		s.budgetFormFailed(w, r, formMonth(r, current), "budget-list", err, "update_budget")
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentBudget).InfoContext(r.Context(), "Budget updated",
		log.FieldUserID, uid,
		log.FieldBudgetID, b.ID,
		log.FieldAmountCents, b.Amount.Cents)
	s.svc.Reports.Invalidate(uid)

	resp := NewHTMXResponse().
		TriggerBudgetsChanged(b.Year, b.Month).
		TriggerSuccessNotification("Budget updated.")
	succeeded(w, r, resp, monthURL("/budgets", b.Year, b.Month))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	current, _, err := s.monthFor(r)
	if err == nil {
		err = s.svc.Budgets.Delete(r.Context(), uid, r.PathValue("id"))
	}
	if err != nil {
		s.formFailed(w, r, "budgets", "budget-list", pageData{}, err, "delete_budget")
		return
	}
	s.svc.Reports.Invalidate(uid)

	resp := NewHTMXResponse().
		TriggerBudgetsChanged(current.Year, current.Month).
		TriggerSuccessNotification("Budget deleted.")
	succeeded(w, r, resp, monthURL("/budgets", current.Year, current.Month))
}
