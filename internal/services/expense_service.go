package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/report"
	"spendwise/internal/storage"
)

// ExpenseInput is the expense form as submitted.
type ExpenseInput struct {
	CategoryID  string
	Amount      string
	Description string
	Date        string
}

func (in ExpenseInput) expense(userID, id string, currency core.Currency) (core.Expense, error) {
	e := core.Expense{
		ID:          id,
		UserID:      userID,
		CategoryID:  strings.TrimSpace(in.CategoryID),
		Currency:    currency.OrDefault(),
		Description: strings.TrimSpace(in.Description),
	}
	v := core.ValidationErrors{}
	amount, err := core.ParseAmount(in.Amount)
	v.AddErr("amount", err)
	e.Amount = amount
	date, err := core.ParseInputDate(in.Date)
	v.AddErr("date", err)
	e.Date = date
	if e.CategoryID == "" {
		v.AddErr("category_id", core.ErrEmptyCategory)
	}
	if len([]rune(e.Description)) > core.MaxDescriptionLength {
		v.AddErr("description", core.ErrDescriptionTooLong)
	}
	return e, v.Err()
}

// ExpenseBackend is the storage an ExpenseService needs.
type ExpenseBackend interface {
	storage.ExpenseStore
	storage.CategoryStore
	storage.SettingsStore
	storage.ViewStore
	storage.AlertStore
}

// ExpenseService records expenses and raises budget alerts when a write
// pushes a budget over the user's threshold or its limit.
type ExpenseService struct {
	store     ExpenseBackend
	publisher Publisher
	Clock     Clock
}

func NewExpenseService(store ExpenseBackend, publisher Publisher) *ExpenseService {
	return &ExpenseService{store: store, publisher: publisher}
}

func (s *ExpenseService) Create(ctx context.Context, userID string, in ExpenseInput) (core.Expense, error) {
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load settings: %w", err)
	}
	e, err := in.expense(userID, core.NewID(), settings.Currency)
	if err != nil {
		return core.Expense{}, err
	}
	if err := s.checkCategory(ctx, userID, e.CategoryID); err != nil {
		return core.Expense{}, err
	}
	now := s.Clock.now()
	e.CreatedAt, e.UpdatedAt = now, now

	if err := s.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.evaluateBudget(ctx, settings, e)
	return e, nil
}

func (s *ExpenseService) Update(ctx context.Context, userID, id string, in ExpenseInput) (core.Expense, error) {
	existing, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, err
	}
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load settings: %w", err)
	}
	e, err := in.expense(userID, id, existing.Currency)
	if err != nil {
		return core.Expense{}, err
	}
	if err := s.checkCategory(ctx, userID, e.CategoryID); err != nil {
		return core.Expense{}, err
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = s.Clock.now()

	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.evaluateBudget(ctx, settings, e)
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense deleted", "user_id", userID, "expense_id", id)
	return nil
}

func (s *ExpenseService) Get(ctx context.Context, userID, id string) (core.ExpenseDetail, error) {
	return s.store.GetExpense(ctx, userID, id)
}

// List returns expenses dated within [start, end], newest first.
func (s *ExpenseService) List(ctx context.Context, userID string, start, end core.Date) ([]core.ExpenseDetail, error) {
	if err := report.ValidateRange(start, end); err != nil {
		return nil, err
	}
	return s.store.ListExpenses(ctx, userID, start, end)
}

func (s *ExpenseService) Recent(ctx context.Context, userID string, limit int) ([]core.ExpenseDetail, error) {
	return s.store.RecentExpenses(ctx, userID, limit)
}

func (s *ExpenseService) checkCategory(ctx context.Context, userID, categoryID string) error {
	_, err := s.store.GetCategory(ctx, userID, categoryID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.ValidationErrors{"category_id": core.ErrEmptyCategory.Error()}
	}
	return err
}

// CrossedAlerts lists the alert types a budget row has reached for the given
// threshold percentage, threshold first.
func CrossedAlerts(row core.BudgetOverview, threshold int) []core.AlertType {
	if row.BudgetAmount.Cents == 0 {
		return nil
	}
	var out []core.AlertType
	if row.PercentageUsed >= float64(threshold) {
		out = append(out, core.AlertBudgetThreshold)
	}
	if row.IsOverBudget {
		out = append(out, core.AlertBudgetExceeded)
	}
	return out
}

// evaluateBudget checks the expense's category budget for its month. Failures
// are logged; the expense itself is already stored.
func (s *ExpenseService) evaluateBudget(ctx context.Context, settings core.Settings, e core.Expense) {
	if !settings.BudgetAlerts {
		return
	}
	rows, err := s.store.ListBudgetOverview(ctx, e.UserID, storage.PeriodFilter{Year: e.Date.Year(), Month: e.Date.Month()}, 0)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load budget overview for alerts", "user_id", e.UserID, "error", err)
		return
	}
	for _, row := range rows {
		if row.CategoryID != e.CategoryID {
			continue
		}
		for _, t := range CrossedAlerts(row, settings.BudgetThreshold) {
			s.raiseAlert(ctx, row, t)
		}
	}
}

func (s *ExpenseService) raiseAlert(ctx context.Context, row core.BudgetOverview, t core.AlertType) {
	now := s.Clock.now()
	alert := core.BudgetAlert{
		ID:         core.NewID(),
		UserID:     row.UserID,
		CategoryID: row.CategoryID,
		BudgetID:   row.BudgetID,
		Type:       t,
		Status:     core.StatusPending,
		Month:      row.Month,
		Year:       row.Year,
		CreatedAt:  now,
	}
	created, err := s.store.RecordAlert(ctx, alert)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to record budget alert", "budget_id", row.BudgetID, "alert_type", t, "error", err)
		return
	}
	if !created {
		return
	}

	slog.InfoContext(ctx, "Budget alert raised",
		"user_id", row.UserID,
		"budget_id", row.BudgetID,
		"alert_type", t,
		"percentage_used", row.PercentageUsed)
	publishAlert(ctx, s.publisher, &amqp.BudgetAlertMessage{
		AlertID:        alert.ID,
		UserID:         row.UserID,
		BudgetID:       row.BudgetID,
		CategoryID:     row.CategoryID,
		CategoryName:   row.CategoryName,
		AlertType:      string(t),
		Month:          row.Month,
		Year:           row.Year,
		PercentageUsed: row.PercentageUsed,
		Timestamp:      now,
	})
}
