package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/report"
	"spendwise/internal/storage"
)

// DigestChecker decides whether a user's weekly digest is due at now and,
// if so, which week it covers.
type DigestChecker interface {
	Due(s core.Settings, now time.Time) (weekStart, weekEnd core.Date, due bool)
}

// WeekdayChecker is due on the user's digest weekday in their timezone and
// covers the previous Monday to Sunday.
type WeekdayChecker struct{}

func (WeekdayChecker) Due(s core.Settings, now time.Time) (core.Date, core.Date, bool) {
	if !s.WeeklyDigestEnabled {
		return core.Date{}, core.Date{}, false
	}
	local := now.In(s.Location())
	if int(local.Weekday()) != s.WeeklyDigestDay {
		return core.Date{}, core.Date{}, false
	}
	start, end := core.WeekBounds(local.AddDate(0, 0, -7), s.Timezone)
	return start, end, true
}

// DigestSummary is the content of one weekly digest.
type DigestSummary struct {
	UserID        string
	WeekStart     core.Date
	WeekEnd       core.Date
	Currency      core.Currency
	Total         core.Money
	Count         int
	TopCategories []report.CategoryTotal
	Budgets       report.BudgetRollup
}

// DigestBackend is the storage a DigestService needs.
type DigestBackend interface {
	storage.SettingsStore
	storage.DigestStore
	storage.ExpenseStore
	storage.ViewStore
}

const (
	pendingRetryAfter  = 15 * time.Minute
	pendingRetryWindow = 7 * 24 * time.Hour
)

// DigestService queues weekly digests and builds their content.
type DigestService struct {
	store     DigestBackend
	publisher Publisher
	checker   DigestChecker
	Clock     Clock
}

func NewDigestService(store DigestBackend, publisher Publisher, checker DigestChecker) *DigestService {
	if checker == nil {
		checker = WeekdayChecker{}
	}
	return &DigestService{store: store, publisher: publisher, checker: checker}
}

// ScheduleDue enqueues the previous week's digest for every subscriber whose
// digest day it is. A week is only queued once per user. Digests left pending
// by an earlier failed publish are published again.
func (s *DigestService) ScheduleDue(ctx context.Context) (int, error) {
	subscribers, err := s.store.ListDigestSubscribers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list digest subscribers: %w", err)
	}

	now := s.Clock.now()
	queued := 0
	var errs []error
	for _, sub := range subscribers {
		start, end, due := s.checker.Due(sub, now)
		if !due {
			continue
		}
		entry := core.DigestEntry{
			ID:        core.NewID(),
			UserID:    sub.UserID,
			WeekStart: start,
			WeekEnd:   end,
			Status:    core.StatusPending,
			CreatedAt: now,
		}
		created, err := s.store.EnqueueDigest(ctx, entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("enqueue digest for %s: %w", sub.UserID, err))
			continue
		}
		if !created {
			continue
		}
		queued++

		if s.publisher == nil {
			slog.WarnContext(ctx, "Publisher not available, digest stays queued", "digest_id", entry.ID)
			continue
		}
		if err := s.publish(ctx, entry, now); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.republishPending(ctx, now); err != nil {
		errs = append(errs, err)
	}
	return queued, errors.Join(errs...)
}

func (s *DigestService) publish(ctx context.Context, entry core.DigestEntry, now time.Time) error {
	msg := &amqp.WeeklyDigestMessage{
		DigestID:  entry.ID,
		UserID:    entry.UserID,
		WeekStart: entry.WeekStart.String(),
		WeekEnd:   entry.WeekEnd.String(),
		Timestamp: now,
	}
	if err := s.publisher.PublishWeeklyDigest(ctx, msg); err != nil {
		return fmt.Errorf("publish digest %s: %w", entry.ID, err)
	}
	return nil
}

// republishPending publishes again the digests still pending after
// pendingRetryAfter, such as rows whose first publish failed. Rows older than
// pendingRetryWindow are left alone.
func (s *DigestService) republishPending(ctx context.Context, now time.Time) error {
	if s.publisher == nil {
		return nil
	}
	pending, err := s.store.PendingDigests(ctx, now.Add(-pendingRetryWindow), now.Add(-pendingRetryAfter))
	if err != nil {
		return fmt.Errorf("list pending digests: %w", err)
	}
	var errs []error
	for _, entry := range pending {
		if err := s.publish(ctx, entry, now); err != nil {
			errs = append(errs, err)
			continue
		}
		slog.InfoContext(ctx, "Republished pending digest", "digest_id", entry.ID, "user_id", entry.UserID)
	}
	return errors.Join(errs...)
}

// Summarize totals the user's spending between weekStart and weekEnd.
func (s *DigestService) Summarize(ctx context.Context, userID string, weekStart, weekEnd core.Date) (DigestSummary, error) {
	if err := report.ValidateRange(weekStart, weekEnd); err != nil {
		return DigestSummary{}, err
	}
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return DigestSummary{}, fmt.Errorf("load settings: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return DigestSummary{}, fmt.Errorf("list expenses: %w", err)
	}
	budgets, err := s.store.ListBudgetOverview(ctx, userID, storage.PeriodFilter{Year: weekEnd.Year(), Month: weekEnd.Month()}, 0)
	if err != nil {
		return DigestSummary{}, fmt.Errorf("budget overview: %w", err)
	}

	sum := DigestSummary{
		UserID:    userID,
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Currency:  settings.Currency.OrDefault(),
		Count:     len(expenses),
		Budgets:   report.RollupBudgets(budgets),
	}
	for _, e := range expenses {
		sum.Total = sum.Total.Add(e.Amount)
	}
	cats := report.GroupByCategory(report.ExpenseRows(expenses))
	if len(cats) > 3 {
		cats = cats[:3]
	}
	sum.TopCategories = cats
	return sum, nil
}

// MarkDigest records the delivery outcome of a queued digest.
func (s *DigestService) MarkDigest(ctx context.Context, id string, deliveryErr error) error {
	status, msg := core.StatusSent, ""
	if deliveryErr != nil {
		status, msg = core.StatusFailed, deliveryErr.Error()
	}
	return s.store.UpdateDigestStatus(ctx, id, status, msg, s.Clock.now())
}
