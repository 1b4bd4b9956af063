// Package worker consumes the AMQP event queues and runs the periodic
// digest and session-cleanup jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/report"
	"spendwise/internal/services"
	"spendwise/internal/sheets"
	"spendwise/internal/storage"
)

// Notifier delivers a message to a user.
type Notifier interface {
	Notify(ctx context.Context, userID, subject, body string) error
}

// Backend is the storage the message handlers use directly.
type Backend interface {
	storage.AlertStore
	storage.SettingsStore
}

// Worker handles budget alert, report export and weekly digest messages.
type Worker struct {
	store    Backend
	reports  *services.ReportService
	digests  *services.DigestService
	writer   sheets.ReportWriter
	notifier Notifier
	logger   *log.StructuredLogger
	now      func() time.Time
}

// New builds a Worker. writer may be nil, in which case export requests are dropped.
func New(store Backend, reports *services.ReportService, digests *services.DigestService, writer sheets.ReportWriter, notifier Notifier, logger *log.Logger) *Worker {
	return &Worker{
		store:    store,
		reports:  reports,
		digests:  digests,
		writer:   writer,
		notifier: notifier,
		logger:   log.NewStructuredLogger(logger.WithComponent(log.ComponentWorker)),
		now:      time.Now,
	}
}

// unrecoverable reports errors that redelivery cannot fix: the user or row is
// gone, or the message asks for an impossible range.
func unrecoverable(err error) bool {
	return errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, report.ErrInvalidRange) ||
		errors.Is(err, core.ErrInvalidDate)
}

// HandleBudgetAlert notifies the user and records the delivery outcome on the
// alert row. Notification failures are recorded, not retried.
func (w *Worker) HandleBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	settings, err := w.store.GetSettings(ctx, msg.UserID)
	if unrecoverable(err) {
		slog.WarnContext(ctx, "Dropping budget alert", "alert_id", msg.AlertID, "user_id", msg.UserID, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	var deliveryErr error
	if !settings.EmailNotifications {
		deliveryErr = errors.New("notifications disabled")
	} else {
		subject, body := alertText(msg)
		deliveryErr = w.notifier.Notify(ctx, msg.UserID, subject, body)
	}

	status, errMsg := core.StatusSent, ""
	if deliveryErr != nil {
		status, errMsg = core.StatusFailed, deliveryErr.Error()
		w.logger.LogError(ctx, "Budget alert not delivered", deliveryErr, log.ComponentWorker, log.OpAlert,
			log.NewFields().WithUser(msg.UserID))
	}
	if err := w.store.UpdateAlertStatus(ctx, msg.AlertID, status, errMsg, w.now()); err != nil {
		if unrecoverable(err) {
			slog.WarnContext(ctx, "Budget alert row is gone", "alert_id", msg.AlertID, "error", err)
			return nil
		}
		return fmt.Errorf("record alert status: %w", err)
	}
	slog.InfoContext(ctx, "Budget alert processed", "alert_id", msg.AlertID, "status", status)
	return nil
}

func alertText(msg *amqp.BudgetAlertMessage) (string, string) {
	period := core.MonthName(msg.Month) + " " + fmt.Sprint(msg.Year)
	if msg.AlertType == string(core.AlertBudgetExceeded) {
		return "Budget exceeded: " + msg.CategoryName,
			fmt.Sprintf("You have spent %.1f%% of your %s budget for %s.", msg.PercentageUsed, period, msg.CategoryName)
	}
	return "Budget alert: " + msg.CategoryName,
		fmt.Sprintf("You have used %.1f%% of your %s budget for %s.", msg.PercentageUsed, period, msg.CategoryName)
}

// HandleReportExport generates the requested report and pushes it to the
// spreadsheet. Malformed ranges and unknown users are dropped; backend errors requeue.
func (w *Worker) HandleReportExport(ctx context.Context, msg *amqp.ReportExportMessage) error {
	start, err := core.ParseDate(msg.Start)
	if err != nil {
		slog.WarnContext(ctx, "Dropping export with bad start date", "user_id", msg.UserID, "start", msg.Start)
		return nil
	}
	end, err := core.ParseDate(msg.End)
	if err != nil {
		slog.WarnContext(ctx, "Dropping export with bad end date", "user_id", msg.UserID, "end", msg.End)
		return nil
	}
	if w.writer == nil {
		slog.WarnContext(ctx, "No spreadsheet configured, dropping export", "user_id", msg.UserID)
		return nil
	}

	r, err := w.reports.Generate(ctx, msg.UserID, start, end)
	if unrecoverable(err) {
		slog.WarnContext(ctx, "Dropping export", "user_id", msg.UserID, "start", msg.Start, "end", msg.End, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	ref, err := w.writer.WriteReport(ctx, r)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	w.logger.LogReportGenerated(ctx, msg.UserID, msg.Start, msg.End, len(r.Sheets), ref)
	return nil
}

// HandleWeeklyDigest summarizes the week and notifies the user.
func (w *Worker) HandleWeeklyDigest(ctx context.Context, msg *amqp.WeeklyDigestMessage) error {
	start, errStart := core.ParseDate(msg.WeekStart)
	end, errEnd := core.ParseDate(msg.WeekEnd)
	if err := errors.Join(errStart, errEnd); err != nil {
		return w.digests.MarkDigest(ctx, msg.DigestID, fmt.Errorf("bad week bounds: %w", err))
	}

	sum, err := w.digests.Summarize(ctx, msg.UserID, start, end)
	if err != nil {
		if markErr := w.digests.MarkDigest(ctx, msg.DigestID, err); markErr != nil && !unrecoverable(markErr) {
			slog.ErrorContext(ctx, "Failed to record digest failure", "digest_id", msg.DigestID, "error", markErr)
		}
		if unrecoverable(err) {
			slog.WarnContext(ctx, "Dropping digest", "digest_id", msg.DigestID, "user_id", msg.UserID, "error", err)
			return nil
		}
		return fmt.Errorf("summarize digest: %w", err)
	}

	subject, body := digestText(sum)
	deliveryErr := w.notifier.Notify(ctx, msg.UserID, subject, body)
	if err := w.digests.MarkDigest(ctx, msg.DigestID, deliveryErr); err != nil {
		return fmt.Errorf("record digest status: %w", err)
	}
	slog.InfoContext(ctx, "Weekly digest processed",
		"digest_id", msg.DigestID,
		"user_id", msg.UserID,
		"expenses", sum.Count,
		"delivered", deliveryErr == nil)
	return nil
}

func digestText(sum services.DigestSummary) (string, string) {
	subject := fmt.Sprintf("Your week: %s - %s",
		sum.WeekStart.Format(core.ShortDateLayout), sum.WeekEnd.Format(core.ShortDateLayout))
	if sum.Count == 0 {
		return subject, "No expenses recorded this week."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You spent %s across %d expenses.", sum.Total.Format(sum.Currency), sum.Count)
	for _, c := range sum.TopCategories {
		fmt.Fprintf(&b, "\n- %s: %s", c.Name, c.Total.Format(sum.Currency))
	}
	if sum.Budgets.OverBudget > 0 {
		fmt.Fprintf(&b, "\n%d budget(s) are over their limit this month.", sum.Budgets.OverBudget)
	}
	return subject, b.String()
}

// Consume runs one consumer per queue until ctx is cancelled.
func (w *Worker) Consume(ctx context.Context, client *amqp.Client, prefetch int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqp.Consume(gctx, client, amqp.QueueBudgetAlerts, prefetch, w.HandleBudgetAlert)
	})
	g.Go(func() error {
		return amqp.Consume(gctx, client, amqp.QueueReportExports, prefetch, w.HandleReportExport)
	})
	g.Go(func() error {
		return amqp.Consume(gctx, client, amqp.QueueWeeklyDigests, prefetch, w.HandleWeeklyDigest)
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
