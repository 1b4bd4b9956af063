package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/report"
	"spendwise/internal/storage"
)

// BudgetInput is the budget form as submitted.
type BudgetInput struct {
	CategoryID string
	Amount     string
	Month      int
	Year       int
}

// BudgetBackend is the storage a BudgetService needs.
type BudgetBackend interface {
	storage.BudgetStore
	storage.CategoryStore
	storage.SettingsStore
	storage.ViewStore
}

type BudgetService struct {
	store BudgetBackend
	Clock Clock
}

func NewBudgetService(store BudgetBackend) *BudgetService {
	return &BudgetService{store: store}
}

func (s *BudgetService) Create(ctx context.Context, userID string, in BudgetInput) (core.Budget, error) {
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("load settings: %w", err)
	}

	b := core.Budget{
		ID:         core.NewID(),
		UserID:     userID,
		CategoryID: strings.TrimSpace(in.CategoryID),
		Currency:   settings.Currency.OrDefault(),
		Month:      in.Month,
		Year:       in.Year,
	}
	v := core.ValidationErrors{}
	amount, err := core.ParseNonNegativeAmount(in.Amount)
	v.AddErr("amount", err)
	b.Amount = amount
	if b.CategoryID == "" {
		v.AddErr("category_id", core.ErrEmptyCategory)
	}
	if b.Month < 1 || b.Month > 12 {
		v.AddErr("month", core.ErrInvalidMonth)
	}
	if b.Year < core.MinBudgetYear || b.Year > core.MaxBudgetYear {
		v.AddErr("year", core.ErrInvalidYear)
	}
	if err := v.Err(); err != nil {
		return core.Budget{}, err
	}

	if _, err := s.store.GetCategory(ctx, userID, b.CategoryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Budget{}, core.ValidationErrors{"category_id": core.ErrEmptyCategory.Error()}
		}
		return core.Budget{}, err
	}

	now := s.Clock.now()
	b.CreatedAt, b.UpdatedAt = now, now
	if err := s.store.CreateBudget(ctx, b); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return core.Budget{}, ErrDuplicateBudget
		}
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget created",
		"user_id", userID,
		"budget_id", b.ID,
		"category_id", b.CategoryID,
		"month", b.Month,
		"year", b.Year)
	return b, nil
}

// UpdateAmount changes a budget's amount.
func (s *BudgetService) UpdateAmount(ctx context.Context, userID, id, amount string) (core.Budget, error) {
	b, err := s.store.GetBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, err
	}
	m, err := core.ParseNonNegativeAmount(amount)
	if err != nil {
		return core.Budget{}, core.ValidationErrors{"amount": err.Error()}
	}
	b.Amount = m
	b.UpdatedAt = s.Clock.now()
	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return b, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteBudget(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// Overview returns the month's budgets, highest usage first, and their rollup.
func (s *BudgetService) Overview(ctx context.Context, userID string, month, year int) ([]core.BudgetOverview, report.BudgetRollup, error) {
	rows, err := s.store.ListBudgetOverview(ctx, userID, storage.PeriodFilter{Year: year, Month: month}, 0)
	if err != nil {
		return nil, report.BudgetRollup{}, fmt.Errorf("budget overview: %w", err)
	}
	return report.SortByUsage(rows), report.RollupBudgets(rows), nil
}

// AvailableCategories lists the categories without a budget for month/year.
func (s *BudgetService) AvailableCategories(ctx context.Context, userID string, month, year int) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	rows, err := s.store.ListBudgetOverview(ctx, userID, storage.PeriodFilter{Year: year, Month: month}, 0)
	if err != nil {
		return nil, fmt.Errorf("budget overview: %w", err)
	}
	budgeted := make(map[string]bool, len(rows))
	for _, r := range rows {
		budgeted[r.CategoryID] = true
	}
	out := make([]core.Category, 0, len(cats))
	for _, c := range cats {
		if !budgeted[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}
