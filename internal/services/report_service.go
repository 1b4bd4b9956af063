package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/amqp"
	"spendwise/internal/cache"
	"spendwise/internal/core"
	"spendwise/internal/report"
	"spendwise/internal/storage"
)

const (
	// maxConcurrentFetches bounds the parallel queries behind one page or report.
	maxConcurrentFetches = 3

	recentExpenseCount   = 5
	analyticsBudgetLimit = 12
)

var ErrExportUnavailable = errors.New("spreadsheet export is not configured")

// ReportBackend is the storage a ReportService reads.
type ReportBackend interface {
	storage.ExpenseStore
	storage.SettingsStore
	storage.ViewStore
}

// Dashboard is the dashboard view model for the user's current month.
type Dashboard struct {
	Year       int
	Month      int
	MonthName  string
	Currency   core.Currency
	Timezone   string
	Totals     report.DashboardTotals
	Highlights report.Highlights
	Budgets    []core.BudgetOverview
	Recent     []core.ExpenseDetail
}

// ReportService builds reports and the read-only dashboard and analytics
// views. Views are cached per user and month when caches are supplied.
type ReportService struct {
	store      ReportBackend
	publisher  Publisher
	dashboards cache.Cache[Dashboard]
	analytics  cache.Cache[report.Analytics]
	Clock      Clock
}

func NewReportService(store ReportBackend, publisher Publisher, dashboards cache.Cache[Dashboard], analytics cache.Cache[report.Analytics]) *ReportService {
	return &ReportService{store: store, publisher: publisher, dashboards: dashboards, analytics: analytics}
}

// Generate loads the data for [start, end] with at most three concurrent
// fetches and assembles the report. The first failing fetch cancels the rest.
func (s *ReportService) Generate(ctx context.Context, userID string, start, end core.Date) (report.Report, error) {
	if err := report.ValidateRange(start, end); err != nil {
		return report.Report{}, err
	}
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return report.Report{}, fmt.Errorf("load settings: %w", err)
	}

	var (
		expenses []core.ExpenseDetail
		budgets  []core.BudgetOverview
		trends   []core.MonthlySummary
	)
	years := storage.PeriodFilter{FromYear: start.Year(), ToYear: end.Year()}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpenses(gctx, userID, start, end)
		if err != nil {
			return fmt.Errorf("fetch expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = s.store.ListBudgetOverview(gctx, userID, years, 0)
		if err != nil {
			return fmt.Errorf("fetch budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		trends, err = s.store.ListMonthlySummaries(gctx, userID, years)
		if err != nil {
			return fmt.Errorf("fetch monthly trends: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return report.Report{}, err
	}

	r, err := report.Assemble(report.ReportData{
		UserID:        userID,
		Expenses:      expenses,
		Budgets:       budgets,
		MonthlyTrends: trends,
		Currency:      settings.Currency,
		Timezone:      settings.Timezone,
		Start:         start,
		End:           end,
		GeneratedAt:   s.Clock.now(),
	})
	if err != nil {
		return report.Report{}, err
	}
	slog.InfoContext(ctx, "Report generated",
		"user_id", userID,
		"range_start", start.String(),
		"range_end", end.String(),
		"expenses", len(expenses),
		"sheets", len(r.Sheets))
	return r, nil
}

// Preview summarizes what Generate would include.
func (s *ReportService) Preview(ctx context.Context, userID string, start, end core.Date) (report.Preview, error) {
	if err := report.ValidateRange(start, end); err != nil {
		return report.Preview{}, err
	}
	var (
		expenses []core.ExpenseDetail
		budgets  []core.BudgetOverview
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpenses(gctx, userID, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		budgets, err = s.store.ListBudgetOverview(gctx, userID, storage.PeriodFilter{FromYear: start.Year(), ToYear: end.Year()}, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return report.Preview{}, fmt.Errorf("report preview: %w", err)
	}
	return report.NewPreview(expenses, budgets, start, end), nil
}

// RequestExport queues a Google Sheets export for the worker.
func (s *ReportService) RequestExport(ctx context.Context, userID string, start, end core.Date) error {
	if err := report.ValidateRange(start, end); err != nil {
		return err
	}
	if s.publisher == nil {
		return ErrExportUnavailable
	}
	msg := amqp.NewReportExportMessage(userID, start.String(), end.String())
	if err := s.publisher.PublishReportExport(ctx, msg); err != nil {
		return fmt.Errorf("request export: %w", err)
	}
	return nil
}

// Dashboard builds the current-month dashboard in the user's timezone.
func (s *ReportService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load settings: %w", err)
	}
	today := core.Today(s.Clock.now(), settings.Timezone)
	key := cache.Key(userID, "dashboard", today.Year(), today.Month())
	if s.dashboards != nil {
		if d, ok := s.dashboards.Get(key); ok {
			return d, nil
		}
	}

	prev := today.AddDate(0, 0, -today.Day()+1).AddDate(0, -1, 0)
	var (
		current, previous []core.MonthlySummary
		budgets           []core.BudgetOverview
		recent            []core.ExpenseDetail
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	g.Go(func() error {
		var err error
		current, err = s.store.ListMonthlySummaries(gctx, userID, storage.PeriodFilter{Year: today.Year(), Month: today.Month()})
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = s.store.ListMonthlySummaries(gctx, userID, storage.PeriodFilter{Year: prev.Year(), Month: int(prev.Month())})
		return err
	})
	g.Go(func() error {
		var err error
		budgets, err = s.store.ListBudgetOverview(gctx, userID, storage.PeriodFilter{Year: today.Year(), Month: today.Month()}, 0)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.store.RecentExpenses(gctx, userID, recentExpenseCount)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("load dashboard: %w", err)
	}

	d := Dashboard{
		Year:       today.Year(),
		Month:      today.Month(),
		MonthName:  core.MonthName(today.Month()),
		Currency:   settings.Currency.OrDefault(),
		Timezone:   settings.Timezone,
		Totals:     report.NewDashboardTotals(current, budgets),
		Highlights: report.MonthOverMonth(current, previous, budgets),
		Budgets:    report.SortByUsage(budgets),
		Recent:     recent,
	}
	if s.dashboards != nil {
		s.dashboards.Set(key, d)
	}
	return d, nil
}

// Analytics builds the analytics page for the user's current year.
func (s *ReportService) Analytics(ctx context.Context, userID string) (report.Analytics, error) {
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return report.Analytics{}, fmt.Errorf("load settings: %w", err)
	}
	today := core.Today(s.Clock.now(), settings.Timezone)
	key := cache.Key(userID, "analytics", today.Year(), today.Month())
	if s.analytics != nil {
		if a, ok := s.analytics.Get(key); ok {
			return a, nil
		}
	}

	in := report.AnalyticsInput{Year: today.Year(), Currency: settings.Currency}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	g.Go(func() error {
		var err error
		in.ThisYear, err = s.store.ListMonthlySummaries(gctx, userID, storage.PeriodFilter{Year: today.Year()})
		return err
	})
	g.Go(func() error {
		var err error
		in.LastYear, err = s.store.ListMonthlySummaries(gctx, userID, storage.PeriodFilter{Year: today.Year() - 1})
		return err
	})
	g.Go(func() error {
		var err error
		in.AllTime, err = s.store.ListMonthlySummaries(gctx, userID, storage.PeriodFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		in.Budgets, err = s.store.ListBudgetOverview(gctx, userID, storage.PeriodFilter{}, analyticsBudgetLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return report.Analytics{}, fmt.Errorf("load analytics: %w", err)
	}

	a := report.BuildAnalytics(in)
	if s.analytics != nil {
		s.analytics.Set(key, a)
	}
	return a, nil
}

// Invalidate drops the user's cached views after a write.
func (s *ReportService) Invalidate(userID string) {
	prefix := cache.UserPrefix(userID)
	if s.dashboards != nil {
		s.dashboards.DeletePrefix(prefix)
	}
	if s.analytics != nil {
		s.analytics.DeletePrefix(prefix)
	}
}
