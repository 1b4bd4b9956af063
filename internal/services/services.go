// Package services holds the business rules between HTTP handlers, workers
// and the storage backend.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"spendwise/internal/amqp"
)

var (
	ErrEmailTaken        = errors.New("an account with this email already exists")
	ErrInvalidToken      = errors.New("invalid or expired confirmation link")
	ErrCategoryInUse     = errors.New("category has expenses or budgets")
	ErrDefaultCategory   = errors.New("default categories cannot be deleted")
	ErrDuplicateCategory = errors.New("a category with this name already exists")
	ErrDuplicateBudget   = errors.New("a budget for this category and month already exists")
	ErrInvalidReassign   = errors.New("invalid reassignment category")
)

// Publisher emits domain events. *amqp.Client implements it; the backend
// factory substitutes a logging publisher when no broker is configured.
type Publisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
	PublishReportExport(ctx context.Context, msg *amqp.ReportExportMessage) error
	PublishWeeklyDigest(ctx context.Context, msg *amqp.WeeklyDigestMessage) error
}

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func publishAlert(ctx context.Context, p Publisher, msg *amqp.BudgetAlertMessage) {
	if p == nil {
		slog.WarnContext(ctx, "Publisher not available, skipping budget alert", "alert_id", msg.AlertID)
		return
	}
	if err := p.PublishBudgetAlert(ctx, msg); err != nil {
		// The alert row stays pending; the write that triggered it already succeeded.
		slog.ErrorContext(ctx, "Failed to publish budget alert", "alert_id", msg.AlertID, "error", err)
	}
}
