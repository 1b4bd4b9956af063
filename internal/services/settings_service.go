package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/storage"
)

// SettingsInput is the settings form.
type SettingsInput struct {
	Timezone            string
	Currency            string
	WeeklyDigestEnabled bool
	WeeklyDigestDay     int
	EmailNotifications  bool
	BudgetAlerts        bool
	BudgetThreshold     int
}

type SettingsService struct {
	store storage.SettingsStore
	Clock Clock
}

func NewSettingsService(store storage.SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

func (s *SettingsService) Get(ctx context.Context, userID string) (core.Settings, error) {
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, userID string, in SettingsInput) (core.Settings, error) {
	settings := core.Settings{
		UserID:              userID,
		Timezone:            strings.TrimSpace(in.Timezone),
		WeeklyDigestEnabled: in.WeeklyDigestEnabled,
		WeeklyDigestDay:     in.WeeklyDigestDay,
		EmailNotifications:  in.EmailNotifications,
		BudgetAlerts:        in.BudgetAlerts,
		BudgetThreshold:     in.BudgetThreshold,
		UpdatedAt:           s.Clock.now(),
	}

	v := core.ValidationErrors{}
	if _, err := time.LoadLocation(settings.Timezone); err != nil || settings.Timezone == "" {
		v.AddErr("timezone", core.ErrInvalidTimezone)
	}
	currency, err := core.ParseCurrency(in.Currency)
	v.AddErr("currency", err)
	settings.Currency = currency
	if settings.WeeklyDigestDay < 0 || settings.WeeklyDigestDay > 6 {
		v.AddErr("weekly_digest_day", core.ErrInvalidDigestDay)
	}
	if settings.BudgetThreshold < core.MinBudgetThreshold || settings.BudgetThreshold > core.MaxBudgetThreshold {
		v.AddErr("budget_threshold", core.ErrInvalidThreshold)
	}
	if err := v.Err(); err != nil {
		return core.Settings{}, err
	}

	if err := s.store.UpdateSettings(ctx, settings); err != nil {
		return core.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	return settings, nil
}
