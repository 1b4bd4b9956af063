package http

import (
	"net/http"

	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/services"
)

// expensesView is the expenses page for one month.
type expensesView struct {
	Month      MonthParams
	Currency   core.Currency
	Today      core.Date
	Expenses   []core.ExpenseDetail
	Total      core.Money
	Categories []core.Category
	// Editing is set when the form edits an existing expense.
	Editing *core.ExpenseDetail
}

func (s *Server) expensesView(r *http.Request, month MonthParams, editID string) (expensesView, error) {
	ctx := r.Context()
	uid := userID(r)
	settings, err := s.svc.Settings.Get(ctx, uid)
	if err != nil {
		return expensesView{}, err
	}
	v := expensesView{Month: month, Currency: settings.Currency, Today: s.today(settings.Timezone)}

	start := core.NewDate(month.Year, month.Month, 1)
	end := core.Date{Time: start.AddDate(0, 1, -1)}
	if v.Expenses, err = s.svc.Expenses.List(ctx, uid, start, end); err != nil {
		return expensesView{}, err
	}
	for _, e := range v.Expenses {
		v.Total = v.Total.Add(e.Amount)
	}
	if v.Categories, err = s.svc.Categories.List(ctx, uid); err != nil {
		return expensesView{}, err
	}

	if editID != "" {
		e, err := s.svc.Expenses.Get(ctx, uid, editID)
		if err != nil {
			return expensesView{}, err
		}
		v.Editing = &e
	}
	return v, nil
}

// monthFor resolves the month a request is about in the user's timezone.
func (s *Server) monthFor(r *http.Request) (MonthParams, core.Settings, error) {
	settings, err := s.svc.Settings.Get(r.Context(), userID(r))
	if err != nil {
		return MonthParams{}, core.Settings{}, err
	}
	return ParseMonthParams(r.URL.Query(), s.today(settings.Timezone)), settings, nil
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	month, _, err := s.monthFor(r)
	if err != nil {
		s.internalError(w, r, err, "list_expenses")
		return
	}
	v, err := s.expensesView(r, month, r.URL.Query().Get("edit"))
	if err != nil {
		s.formFailed(w, r, "expenses", "expense-list", pageData{}, err, "list_expenses")
		return
	}
	s.render(w, r, http.StatusOK, "expenses", pageData{Title: "Expenses", Nav: "expenses", View: v})
}

func expenseInput(r *http.Request) services.ExpenseInput {
	return services.ExpenseInput{
		CategoryID:  formValue(r, "category_id"),
		Amount:      formValue(r, "amount"),
		Description: formValue(r, "description"),
		Date:        formValue(r, "date"),
	}
}

// expenseFormFailed re-renders the expense form with the submitted values.
func (s *Server) expenseFormFailed(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if status, _ := classifyError(err); status == http.StatusNotFound {
		s.notFound(w, r)
		return
	}
	month, _, verr := s.monthFor(r)
	if verr != nil {
		s.internalError(w, r, verr, operation)
		return
	}
	v, verr := s.expensesView(r, month, r.PathValue("id"))
	if verr != nil {
		s.internalError(w, r, verr, operation)
		return
	}
	s.formFailed(w, r, "expenses", "expense-form", pageData{Title: "Expenses", Nav: "expenses", View: v}, err, operation)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	uid := userID(r)
	e, err := s.svc.Expenses.Create(r.Context(), uid, expenseInput(r))
	if err != nil {
		s.expenseFormFailed(w, r, err, "create_expense")
		return
	}

	s.metrics.expensesCreated.Add(1)
	s.events.LogExpenseRecorded(r.Context(), uid, e.ID, e.CategoryID, e.Amount.Cents)
	s.svc.Reports.Invalidate(uid)

	resp := NewHTMXResponse().
		TriggerExpensesChanged(e.Date.Year(), e.Date.Month()).
		TriggerFormReset().
		TriggerSuccessNotification("Expense saved.")
	succeeded(w, r, resp, monthURL("/expenses", e.Date.Year(), e.Date.Month()))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	uid := userID(r)
	e, err := s.svc.Expenses.Update(r.Context(), uid, r.PathValue("id"), expenseInput(r))
	if err != nil {
		s.expenseFormFailed(w, r, err, "update_expense")
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentExpense).InfoContext(r.Context(), "Expense updated",
		log.FieldUserID, uid,
		log.FieldExpenseID, e.ID,
		log.FieldAmountCents, e.Amount.Cents)
	s.svc.Reports.Invalidate(uid)

	resp := NewHTMXResponse().
		TriggerExpensesChanged(e.Date.Year(), e.Date.Month()).
		TriggerFormReset().
		TriggerSuccessNotification("Expense updated.")
	succeeded(w, r, resp, monthURL("/expenses", e.Date.Year(), e.Date.Month()))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id := r.PathValue("id")
	e, err := s.svc.Expenses.Get(r.Context(), uid, id)
	if err == nil {
		err = s.svc.Expenses.Delete(r.Context(), uid, id)
	}
	if err != nil {
		s.formFailed(w, r, "expenses", "expense-list", pageData{}, err, "delete_expense")
		return
	}
	s.svc.Reports.Invalidate(uid)

	resp := NewHTMXResponse().
		TriggerExpensesChanged(e.Date.Year(), e.Date.Month()).
		TriggerSuccessNotification("Expense deleted.")
	succeeded(w, r, resp, monthURL("/expenses", e.Date.Year(), e.Date.Month()))
}
