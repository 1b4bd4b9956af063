// Package adapters holds stand-ins for outbound integrations that are not
// configured: events and notifications are written to the log instead.
package adapters

import (
	"context"
	"log/slog"

	"spendwise/internal/amqp"
)

// LogPublisher records events in the log when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger.With("component", "events")}
}

func (p *LogPublisher) PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	p.logger.InfoContext(ctx, "Budget alert event (no broker)",
		"alert_id", msg.AlertID,
		"user_id", msg.UserID,
		"budget_id", msg.BudgetID,
		"alert_type", msg.AlertType,
		"percentage_used", msg.PercentageUsed)
	return nil
}

func (p *LogPublisher) PublishReportExport(ctx context.Context, msg *amqp.ReportExportMessage) error {
	p.logger.InfoContext(ctx, "Report export event (no broker)",
		"user_id", msg.UserID,
		"range_start", msg.Start,
		"range_end", msg.End)
	return nil
}

func (p *LogPublisher) PublishWeeklyDigest(ctx context.Context, msg *amqp.WeeklyDigestMessage) error {
	p.logger.InfoContext(ctx, "Weekly digest event (no broker)",
		"digest_id", msg.DigestID,
		"user_id", msg.UserID,
		"week_start", msg.WeekStart)
	return nil
}

// LogNotifier delivers user notifications by logging them.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (n *LogNotifier) Notify(ctx context.Context, userID, subject, body string) error {
	n.logger.InfoContext(ctx, "Notification",
		"user_id", userID,
		"subject", subject,
		"body", body)
	return nil
}
