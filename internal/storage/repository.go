package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spendwise/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(r.queries.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// mapError translates driver errors into the storage sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", ErrInUse, err)
		}
	}
	return err
}

func affected(n int64, err error) error {
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- accounts ---

func (r *SQLiteRepository) CreateAccount(ctx context.Context, u core.User, s core.Settings, cats []core.Category) error {
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.CreateUser(ctx, UserRow(u)); err != nil {
			return fmt.Errorf("create user: %w", mapError(err))
		}
		if err := q.CreateSettings(ctx, SettingsRow(s)); err != nil {
			return fmt.Errorf("create settings: %w", mapError(err))
		}
		for _, c := range cats {
			if err := q.SeedCategory(ctx, CategoryRow(c)); err != nil {
				return fmt.Errorf("seed category %q: %w", c.Name, mapError(err))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Account created", "user_id", u.ID, "categories", len(cats))
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	u, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return core.User{}, mapError(err)
	}
	return u.Core(), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, mapError(err)
	}
	return u.Core(), nil
}

func (r *SQLiteRepository) ConfirmUser(ctx context.Context, token string, at time.Time) (core.User, error) {
	u, err := r.queries.ConfirmUser(ctx, token, at.UTC())
	if err != nil {
		return core.User{}, mapError(err)
	}
	return u.Core(), nil
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, s core.Session) error {
	return mapError(r.queries.CreateSession(ctx, SessionRow(s)))
}

func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (core.Session, error) {
	s, err := r.queries.GetSession(ctx, token)
	if err != nil {
		return core.Session{}, mapError(err)
	}
	return s.Core(), nil
}

func (r *SQLiteRepository) ExtendSession(ctx context.Context, token string, expiresAt time.Time) error {
	return affected(r.queries.ExtendSession(ctx, token, expiresAt.UTC()))
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	return mapError(r.queries.DeleteSession(ctx, token))
}

func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.queries.DeleteExpiredSessions(ctx, now.UTC())
	return n, mapError(err)
}

// --- settings ---

func (r *SQLiteRepository) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	s, err := r.queries.GetSettings(ctx, userID)
	if err != nil {
		return core.Settings{}, mapError(err)
	}
	return s.Core(), nil
}

func (r *SQLiteRepository) UpdateSettings(ctx context.Context, s core.Settings) error {
	return affected(r.queries.UpdateSettings(ctx, SettingsRow(s)))
}

func (r *SQLiteRepository) ListDigestSubscribers(ctx context.Context) ([]core.Settings, error) {
	rows, err := r.queries.ListDigestSubscribers(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]core.Settings, 0, len(rows))
	for _, s := range rows {
		out = append(out, s.Core())
	}
	return out, nil
}

// --- categories ---

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, c := range rows {
		out = append(out, c.Core())
	}
	return out, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	c, err := r.queries.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, mapError(err)
	}
	return c.Core(), nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	return mapError(r.queries.CreateCategory(ctx, CategoryRow(c)))
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	return affected(r.queries.UpdateCategory(ctx, CategoryRow(c)))
}

func (r *SQLiteRepository) CategoryUsage(ctx context.Context, userID, id string) (int, int, error) {
	expenses, err := r.queries.CountCategoryExpenses(ctx, userID, id)
	if err != nil {
		return 0, 0, mapError(err)
	}
	budgets, err := r.queries.CountCategoryBudgets(ctx, userID, id)
	if err != nil {
		return 0, 0, mapError(err)
	}
	return int(expenses), int(budgets), nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id, reassignTo string) error {
	return r.withTx(ctx, func(q *Queries) error {
		if reassignTo != "" {
			if _, err := q.GetCategory(ctx, userID, reassignTo); err != nil {
				return fmt.Errorf("reassign target: %w", mapError(err))
			}
			now := time.Now().UTC()
			if err := q.ReassignExpenses(ctx, userID, id, reassignTo, now); err != nil {
				return fmt.Errorf("reassign expenses: %w", mapError(err))
			}
			if err := q.ReassignBudgets(ctx, userID, id, reassignTo, now); err != nil {
				return fmt.Errorf("reassign budgets: %w", mapError(err))
			}
			if err := q.DeleteCategoryBudgets(ctx, userID, id); err != nil {
				return fmt.Errorf("drop overlapping budgets: %w", mapError(err))
			}
		}
		return affected(q.DeleteCategory(ctx, userID, id))
	})
}

// --- expenses ---

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	if err := r.queries.CreateExpense(ctx, ExpenseRow(e)); err != nil {
		return fmt.Errorf("create expense: %w", mapError(err))
	}
	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())
	return nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	return affected(r.queries.UpdateExpense(ctx, ExpenseRow(e)))
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	return affected(r.queries.DeleteExpense(ctx, userID, id))
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id string) (core.ExpenseDetail, error) {
	e, err := r.queries.GetExpense(ctx, userID, id)
	if err != nil {
		return core.ExpenseDetail{}, mapError(err)
	}
	return e.Core()
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, start, end core.Date) ([]core.ExpenseDetail, error) {
	rows, err := r.queries.ListExpensesInRange(ctx, userID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", mapError(err))
	}
	return ExpenseDetails(rows)
}

func (r *SQLiteRepository) RecentExpenses(ctx context.Context, userID string, limit int) ([]core.ExpenseDetail, error) {
	rows, err := r.queries.ListRecentExpenses(ctx, userID, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("recent expenses: %w", mapError(err))
	}
	return ExpenseDetails(rows)
}

// --- budgets ---

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	return mapError(r.queries.CreateBudget(ctx, BudgetRow(b)))
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	return affected(r.queries.UpdateBudget(ctx, BudgetRow(b)))
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	return affected(r.queries.DeleteBudget(ctx, userID, id))
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	b, err := r.queries.GetBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, mapError(err)
	}
	return b.Core(), nil
}

func (r *SQLiteRepository) FindBudget(ctx context.Context, userID, categoryID string, month, year int) (core.Budget, error) {
	b, err := r.queries.FindBudget(ctx, userID, categoryID, int64(month), int64(year))
	if err != nil {
		return core.Budget{}, mapError(err)
	}
	return b.Core(), nil
}

// --- views ---

func periodParams(userID string, f PeriodFilter, limit int) PeriodParams {
	return PeriodParams{
		UserID:   userID,
		FromYear: int64(f.FromYear),
		ToYear:   int64(f.ToYear),
		Year:     int64(f.Year),
		Month:    int64(f.Month),
		Limit:    int64(limit),
	}
}

func (r *SQLiteRepository) ListMonthlySummaries(ctx context.Context, userID string, f PeriodFilter) ([]core.MonthlySummary, error) {
	rows, err := r.queries.ListMonthlySummaries(ctx, periodParams(userID, f, 0))
	if err != nil {
		return nil, fmt.Errorf("list monthly summaries: %w", mapError(err))
	}
	out := make([]core.MonthlySummary, 0, len(rows))
	for _, s := range rows {
		out = append(out, s.Core())
	}
	return out, nil
}

func (r *SQLiteRepository) ListBudgetOverview(ctx context.Context, userID string, f PeriodFilter, limit int) ([]core.BudgetOverview, error) {
	rows, err := r.queries.ListBudgetOverview(ctx, periodParams(userID, f, limit))
	if err != nil {
		return nil, fmt.Errorf("list budget overview: %w", mapError(err))
	}
	out := make([]core.BudgetOverview, 0, len(rows))
	for _, b := range rows {
		out = append(out, b.Core())
	}
	return out, nil
}

// --- notifications ---

func (r *SQLiteRepository) RecordAlert(ctx context.Context, a core.BudgetAlert) (bool, error) {
	n, err := r.queries.InsertAlert(ctx, AlertRow(a))
	if err != nil {
		return false, mapError(err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) UpdateAlertStatus(ctx context.Context, id string, status core.DeliveryStatus, errMsg string, at time.Time) error {
	msg, sentAt := DeliveryColumns(status, errMsg, at)
	return affected(r.queries.UpdateAlertStatus(ctx, id, string(status), msg, sentAt))
}

func (r *SQLiteRepository) EnqueueDigest(ctx context.Context, d core.DigestEntry) (bool, error) {
	n, err := r.queries.InsertDigest(ctx, DigestRow(d))
	if err != nil {
		return false, mapError(err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) UpdateDigestStatus(ctx context.Context, id string, status core.DeliveryStatus, errMsg string, at time.Time) error {
	msg, sentAt := DeliveryColumns(status, errMsg, at)
	return affected(r.queries.UpdateDigestStatus(ctx, id, string(status), msg, sentAt))
}

func (r *SQLiteRepository) PendingDigests(ctx context.Context, from, to time.Time) ([]core.DigestEntry, error) {
	rows, err := r.queries.ListPendingDigests(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]core.DigestEntry, 0, len(rows))
	for _, row := range rows {
		d, err := row.Core()
		if err != nil {
			return nil, fmt.Errorf("digest %s: %w", row.ID, err)
		}
		out = append(out, d)
	}
	return out, nil
}
