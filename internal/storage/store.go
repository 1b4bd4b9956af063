package storage

import (
	"context"
	"errors"
	"time"

	"spendwise/internal/core"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate record")
	ErrInUse     = errors.New("record in use")
)

// PeriodFilter narrows the monthly views. Zero fields do not filter.
type PeriodFilter struct {
	FromYear int
	ToYear   int
	Year     int
	Month    int
}

// Ports implemented by every backend. Services depend on the narrowest one they need.
type (
	AccountStore interface {
		// CreateAccount inserts the user, their settings and seed categories atomically.
		CreateAccount(ctx context.Context, u core.User, s core.Settings, cats []core.Category) error
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		ConfirmUser(ctx context.Context, token string, at time.Time) (core.User, error)

		CreateSession(ctx context.Context, s core.Session) error
		GetSession(ctx context.Context, token string) (core.Session, error)
		ExtendSession(ctx context.Context, token string, expiresAt time.Time) error
		DeleteSession(ctx context.Context, token string) error
		DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	}

	SettingsStore interface {
		GetSettings(ctx context.Context, userID string) (core.Settings, error)
		UpdateSettings(ctx context.Context, s core.Settings) error
		ListDigestSubscribers(ctx context.Context) ([]core.Settings, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		GetCategory(ctx context.Context, userID, id string) (core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) error
		UpdateCategory(ctx context.Context, c core.Category) error
		// CategoryUsage counts the expenses and budgets referencing a category.
		CategoryUsage(ctx context.Context, userID, id string) (expenses int, budgets int, err error)
		// DeleteCategory removes a category. When reassignTo is set, its expenses and
		// budgets move there first in the same transaction.
		DeleteCategory(ctx context.Context, userID, id, reassignTo string) error
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) error
		UpdateExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, userID, id string) error
		GetExpense(ctx context.Context, userID, id string) (core.ExpenseDetail, error)
		// ListExpenses returns expenses dated within [start, end], newest first.
		ListExpenses(ctx context.Context, userID string, start, end core.Date) ([]core.ExpenseDetail, error)
		RecentExpenses(ctx context.Context, userID string, limit int) ([]core.ExpenseDetail, error)
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) error
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, userID, id string) error
		GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
		FindBudget(ctx context.Context, userID, categoryID string, month, year int) (core.Budget, error)
	}

	// ViewStore reads the derived monthly views.
	ViewStore interface {
		ListMonthlySummaries(ctx context.Context, userID string, f PeriodFilter) ([]core.MonthlySummary, error)
		// ListBudgetOverview returns rows newest month first; limit <= 0 means all.
		ListBudgetOverview(ctx context.Context, userID string, f PeriodFilter, limit int) ([]core.BudgetOverview, error)
	}

	AlertStore interface {
		// RecordAlert inserts a pending alert; created is false when one of the
		// same type already exists for the budget.
		RecordAlert(ctx context.Context, a core.BudgetAlert) (created bool, err error)
		UpdateAlertStatus(ctx context.Context, id string, status core.DeliveryStatus, errMsg string, at time.Time) error
	}

	DigestStore interface {
		EnqueueDigest(ctx context.Context, d core.DigestEntry) (created bool, err error)
		UpdateDigestStatus(ctx context.Context, id string, status core.DeliveryStatus, errMsg string, at time.Time) error
		// PendingDigests returns pending rows created in [from, to), oldest first.
		PendingDigests(ctx context.Context, from, to time.Time) ([]core.DigestEntry, error)
	}

	// Store is a complete backend.
	Store interface {
		AccountStore
		SettingsStore
		CategoryStore
		ExpenseStore
		BudgetStore
		ViewStore
		AlertStore
		DigestStore
		Ping(ctx context.Context) error
		Close() error
	}
)
