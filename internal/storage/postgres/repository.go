// Package postgres is the PostgreSQL backend. It shares row types and
// conversions with the SQLite backend and differs only in SQL dialect.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"spendwise/internal/core"
	"spendwise/internal/storage"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Repository)(nil)

// New connects to databaseURL, applies migrations and returns the repository.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", storage.ErrDuplicate, pgErr.ConstraintName)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%w: %s", storage.ErrInUse, pgErr.ConstraintName)
		}
	}
	return err
}

func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// --- accounts ---

const userColumns = `id, email, password_hash, confirm_token, email_confirmed_at, created_at`

func scanUser(row scanner) (core.User, error) {
	var u storage.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.ConfirmToken, &u.EmailConfirmedAt, &u.CreatedAt); err != nil {
		return core.User{}, mapError(err)
	}
	return u.Core(), nil
}

func (r *Repository) CreateAccount(ctx context.Context, u core.User, s core.Settings, cats []core.Category) error {
	err := r.withTx(ctx, func(q querier) error {
		ur := storage.UserRow(u)
		if _, err := q.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
			ur.ID, ur.Email, ur.PasswordHash, ur.ConfirmToken, ur.EmailConfirmedAt, ur.CreatedAt); err != nil {
			return fmt.Errorf("create user: %w", mapError(err))
		}
		sr := storage.SettingsRow(s)
		if _, err := q.Exec(ctx, `INSERT INTO user_settings (`+settingsColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			sr.UserID, sr.Timezone, sr.Currency, sr.WeeklyDigestEnabled, sr.WeeklyDigestDay,
			sr.EmailNotifications, sr.BudgetAlerts, sr.BudgetThreshold, sr.UpdatedAt); err != nil {
			return fmt.Errorf("create settings: %w", mapError(err))
		}
		for _, c := range cats {
			if err := insertCategory(ctx, q, c, true); err != nil {
				return fmt.Errorf("seed category %q: %w", c.Name, err)
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

func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *Repository) ConfirmUser(ctx context.Context, token string, at time.Time) (core.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `UPDATE users SET email_confirmed_at = $1, confirm_token = NULL
		WHERE confirm_token = $2 RETURNING `+userColumns, at.UTC(), token))
}

func (r *Repository) CreateSession(ctx context.Context, s core.Session) error {
	row := storage.SessionRow(s)
	_, err := r.pool.Exec(ctx, `INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		row.Token, row.UserID, row.ExpiresAt, row.CreatedAt)
	return mapError(err)
}

func (r *Repository) GetSession(ctx context.Context, token string) (core.Session, error) {
	var s storage.Session
	err := r.pool.QueryRow(ctx, `SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = $1`, token).
		Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return core.Session{}, mapError(err)
	}
	return s.Core(), nil
}

func (r *Repository) ExtendSession(ctx context.Context, token string, expiresAt time.Time) error {
	return affected(r.pool.Exec(ctx, `UPDATE sessions SET expires_at = $1 WHERE token = $2`, expiresAt.UTC(), token))
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return mapError(err)
}

func (r *Repository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now.UTC())
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

// --- settings ---

const settingsColumns = `user_id, timezone, currency, weekly_digest_enabled, weekly_digest_day,
email_notifications, budget_alerts, budget_threshold, updated_at`

func scanSettings(row scanner) (core.Settings, error) {
	var s storage.UserSetting
	if err := row.Scan(&s.UserID, &s.Timezone, &s.Currency, &s.WeeklyDigestEnabled, &s.WeeklyDigestDay,
		&s.EmailNotifications, &s.BudgetAlerts, &s.BudgetThreshold, &s.UpdatedAt); err != nil {
		return core.Settings{}, mapError(err)
	}
	return s.Core(), nil
}

func (r *Repository) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	return scanSettings(r.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM user_settings WHERE user_id = $1`, userID))
}

func (r *Repository) UpdateSettings(ctx context.Context, s core.Settings) error {
	row := storage.SettingsRow(s)
	return affected(r.pool.Exec(ctx, `UPDATE user_settings SET timezone = $1, currency = $2, weekly_digest_enabled = $3,
		weekly_digest_day = $4, email_notifications = $5, budget_alerts = $6, budget_threshold = $7, updated_at = $8
		WHERE user_id = $9`,
		row.Timezone, row.Currency, row.WeeklyDigestEnabled, row.WeeklyDigestDay, row.EmailNotifications,
		row.BudgetAlerts, row.BudgetThreshold, row.UpdatedAt, row.UserID))
}

func (r *Repository) ListDigestSubscribers(ctx context.Context) ([]core.Settings, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+settingsColumns+` FROM user_settings
		WHERE weekly_digest_enabled ORDER BY user_id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []core.Settings
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, mapError(rows.Err())
}

// --- categories ---

const categoryColumns = `id, user_id, name, color, icon, is_default, created_at`

func scanCategory(row scanner) (core.Category, error) {
	var c storage.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Icon, &c.IsDefault, &c.CreatedAt); err != nil {
		return core.Category{}, mapError(err)
	}
	return c.Core(), nil
}

func insertCategory(ctx context.Context, q querier, c core.Category, seed bool) error {
	row := storage.CategoryRow(c)
	query := `INSERT INTO categories (` + categoryColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if seed {
		query += ` ON CONFLICT DO NOTHING`
	}
	_, err := q.Exec(ctx, query, row.ID, row.UserID, row.Name, row.Color, row.Icon, row.IsDefault, row.CreatedAt)
	return mapError(err)
}

func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE user_id = $1
		ORDER BY is_default DESC, name`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, mapError(rows.Err())
}

func (r *Repository) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 AND id = $2`, userID, id))
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) error {
	return insertCategory(ctx, r.pool, c, false)
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) error {
	row := storage.CategoryRow(c)
	return affected(r.pool.Exec(ctx, `UPDATE categories SET name = $1, color = $2, icon = $3 WHERE user_id = $4 AND id = $5`,
		row.Name, row.Color, row.Icon, row.UserID, row.ID))
}

func (r *Repository) CategoryUsage(ctx context.Context, userID, id string) (int, int, error) {
	var expenses, budgets int64
	err := r.pool.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM expenses WHERE user_id = $1 AND category_id = $2),
		(SELECT COUNT(*) FROM budgets WHERE user_id = $1 AND category_id = $2)`, userID, id).Scan(&expenses, &budgets)
	if err != nil {
		return 0, 0, mapError(err)
	}
	return int(expenses), int(budgets), nil
}

func (r *Repository) DeleteCategory(ctx context.Context, userID, id, reassignTo string) error {
	return r.withTx(ctx, func(q querier) error {
		if reassignTo != "" {
			if _, err := scanCategory(q.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 AND id = $2`, userID, reassignTo)); err != nil {
				return fmt.Errorf("reassign target: %w", err)
			}
			now := time.Now().UTC()
			if _, err := q.Exec(ctx, `UPDATE expenses SET category_id = $1, updated_at = $2 WHERE user_id = $3 AND category_id = $4`,
				reassignTo, now, userID, id); err != nil {
				return fmt.Errorf("reassign expenses: %w", mapError(err))
			}
			if _, err := q.Exec(ctx, `UPDATE budgets b SET category_id = $1, updated_at = $2
				WHERE b.user_id = $3 AND b.category_id = $4
				  AND NOT EXISTS (
				    SELECT 1 FROM budgets t
				    WHERE t.user_id = b.user_id AND t.category_id = $1 AND t.month = b.month AND t.year = b.year
				  )`, reassignTo, now, userID, id); err != nil {
				return fmt.Errorf("reassign budgets: %w", mapError(err))
			}
			if _, err := q.Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND category_id = $2`, userID, id); err != nil {
				return fmt.Errorf("drop overlapping budgets: %w", mapError(err))
			}
		}
		return affected(q.Exec(ctx, `DELETE FROM categories WHERE user_id = $1 AND id = $2`, userID, id))
	})
}

// --- expenses ---

const expenseDetailSelect = `SELECT e.id, e.user_id, e.category_id, e.amount_cents, e.currency, e.description,
e.expense_date, e.created_at, e.updated_at, c.name, c.color, c.icon
FROM expenses e JOIN categories c ON c.id = e.category_id`

func scanExpenseDetail(row scanner) (core.ExpenseDetail, error) {
	var e storage.ExpenseWithCategory
	if err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.AmountCents, &e.Currency, &e.Description,
		&e.ExpenseDate, &e.CreatedAt, &e.UpdatedAt, &e.CategoryName, &e.CategoryColor, &e.CategoryIcon); err != nil {
		return core.ExpenseDetail{}, mapError(err)
	}
	return e.Core()
}

func (r *Repository) listExpenses(ctx context.Context, query string, args ...any) ([]core.ExpenseDetail, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []core.ExpenseDetail
	for rows.Next() {
		e, err := scanExpenseDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, mapError(rows.Err())
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) error {
	row := storage.ExpenseRow(e)
	_, err := r.pool.Exec(ctx, `INSERT INTO expenses (id, user_id, category_id, amount_cents, currency, description,
		expense_date, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		row.ID, row.UserID, row.CategoryID, row.AmountCents, row.Currency, row.Description, row.ExpenseDate, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create expense: %w", mapError(err))
	}
	slog.InfoContext(ctx, "Expense saved to PostgreSQL", "id", e.ID, "user_id", e.UserID, "amount_cents", e.Amount.Cents)
	return nil
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	row := storage.ExpenseRow(e)
	return affected(r.pool.Exec(ctx, `UPDATE expenses SET category_id = $1, amount_cents = $2, currency = $3,
		description = $4, expense_date = $5, updated_at = $6 WHERE user_id = $7 AND id = $8`,
		row.CategoryID, row.AmountCents, row.Currency, row.Description, row.ExpenseDate, row.UpdatedAt, row.UserID, row.ID))
}

func (r *Repository) DeleteExpense(ctx context.Context, userID, id string) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM expenses WHERE user_id = $1 AND id = $2`, userID, id))
}

func (r *Repository) GetExpense(ctx context.Context, userID, id string) (core.ExpenseDetail, error) {
	return scanExpenseDetail(r.pool.QueryRow(ctx, expenseDetailSelect+` WHERE e.user_id = $1 AND e.id = $2`, userID, id))
}

func (r *Repository) ListExpenses(ctx context.Context, userID string, start, end core.Date) ([]core.ExpenseDetail, error) {
	return r.listExpenses(ctx, expenseDetailSelect+`
		WHERE e.user_id = $1 AND e.expense_date >= $2 AND e.expense_date <= $3
		ORDER BY e.expense_date DESC, e.created_at DESC`, userID, start.String(), end.String())
}

func (r *Repository) RecentExpenses(ctx context.Context, userID string, limit int) ([]core.ExpenseDetail, error) {
	return r.listExpenses(ctx, expenseDetailSelect+`
		WHERE e.user_id = $1
		ORDER BY e.expense_date DESC, e.created_at DESC
		LIMIT $2`, userID, limit)
}

// --- budgets ---

const budgetColumns = `id, user_id, category_id, amount_cents, currency, month, year, created_at, updated_at`

func scanBudget(row scanner) (core.Budget, error) {
	var b storage.Budget
	if err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.AmountCents, &b.Currency, &b.Month, &b.Year, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return core.Budget{}, mapError(err)
	}
	return b.Core(), nil
}

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) error {
	row := storage.BudgetRow(b)
	_, err := r.pool.Exec(ctx, `INSERT INTO budgets (`+budgetColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		row.ID, row.UserID, row.CategoryID, row.AmountCents, row.Currency, row.Month, row.Year, row.CreatedAt, row.UpdatedAt)
	return mapError(err)
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) error {
	row := storage.BudgetRow(b)
	return affected(r.pool.Exec(ctx, `UPDATE budgets SET amount_cents = $1, currency = $2, updated_at = $3 WHERE user_id = $4 AND id = $5`,
		row.AmountCents, row.Currency, row.UpdatedAt, row.UserID, row.ID))
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id string) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND id = $2`, userID, id))
}

func (r *Repository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	return scanBudget(r.pool.QueryRow(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 AND id = $2`, userID, id))
}

func (r *Repository) FindBudget(ctx context.Context, userID, categoryID string, month, year int) (core.Budget, error) {
	return scanBudget(r.pool.QueryRow(ctx, `SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = $1 AND category_id = $2 AND month = $3 AND year = $4`, userID, categoryID, month, year))
}

// --- views ---

const periodWhere = `WHERE user_id = $1
  AND ($2::int = 0 OR year >= $2)
  AND ($3::int = 0 OR year <= $3)
  AND ($4::int = 0 OR year = $4)
  AND ($5::int = 0 OR month = $5)`

func (r *Repository) ListMonthlySummaries(ctx context.Context, userID string, f storage.PeriodFilter) ([]core.MonthlySummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, year, month, category_id, category_name, category_color, category_icon,
		currency, expense_count, total_cents, min_cents, max_cents
		FROM monthly_expense_summary `+periodWhere+`
		ORDER BY year DESC, month DESC, total_cents DESC`,
		userID, f.FromYear, f.ToYear, f.Year, f.Month)
	if err != nil {
		return nil, fmt.Errorf("list monthly summaries: %w", mapError(err))
	}
	defer rows.Close()
	var out []core.MonthlySummary
	for rows.Next() {
		var s storage.MonthlyExpenseSummary
		if err := rows.Scan(&s.UserID, &s.Year, &s.Month, &s.CategoryID, &s.CategoryName, &s.CategoryColor,
			&s.CategoryIcon, &s.Currency, &s.ExpenseCount, &s.TotalCents, &s.MinCents, &s.MaxCents); err != nil {
			return nil, mapError(err)
		}
		out = append(out, s.Core())
	}
	return out, mapError(rows.Err())
}

func (r *Repository) ListBudgetOverview(ctx context.Context, userID string, f storage.PeriodFilter, limit int) ([]core.BudgetOverview, error) {
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}
	rows, err := r.pool.Query(ctx, `SELECT budget_id, user_id, category_id, category_name, category_color, category_icon,
		month, year, currency, budget_cents, spent_cents
		FROM monthly_budget_overview `+periodWhere+`
		ORDER BY year DESC, month DESC, category_name
		LIMIT $6`,
		userID, f.FromYear, f.ToYear, f.Year, f.Month, lim)
	if err != nil {
		return nil, fmt.Errorf("list budget overview: %w", mapError(err))
	}
	defer rows.Close()
	var out []core.BudgetOverview
	for rows.Next() {
		var b storage.MonthlyBudgetOverview
		if err := rows.Scan(&b.BudgetID, &b.UserID, &b.CategoryID, &b.CategoryName, &b.CategoryColor, &b.CategoryIcon,
			&b.Month, &b.Year, &b.Currency, &b.BudgetCents, &b.SpentCents); err != nil {
			return nil, mapError(err)
		}
		out = append(out, b.Core())
	}
	return out, mapError(rows.Err())
}

// --- notifications ---

func (r *Repository) RecordAlert(ctx context.Context, a core.BudgetAlert) (bool, error) {
	row := storage.AlertRow(a)
	tag, err := r.pool.Exec(ctx, `INSERT INTO budget_alerts (id, user_id, category_id, budget_id, alert_type, status, month, year, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (budget_id, alert_type) DO NOTHING`,
		row.ID, row.UserID, row.CategoryID, row.BudgetID, row.AlertType, row.Status, row.Month, row.Year, row.CreatedAt)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) UpdateAlertStatus(ctx context.Context, id string, status core.DeliveryStatus, errMsg string, at time.Time) error {
	msg, sentAt := storage.DeliveryColumns(status, errMsg, at)
	return affected(r.pool.Exec(ctx, `UPDATE budget_alerts SET status = $1, error_message = $2, sent_at = $3 WHERE id = $4`,
		string(status), msg, sentAt, id))
}

func (r *Repository) EnqueueDigest(ctx context.Context, d core.DigestEntry) (bool, error) {
	row := storage.DigestRow(d)
	tag, err := r.pool.Exec(ctx, `INSERT INTO weekly_digest_queue (id, user_id, week_start_date, week_end_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, week_start_date) DO NOTHING`,
		row.ID, row.UserID, row.WeekStartDate, row.WeekEndDate, row.Status, row.CreatedAt)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) UpdateDigestStatus(ctx context.Context, id string, status core.DeliveryStatus, errMsg string, at time.Time) error {
	msg, sentAt := storage.DeliveryColumns(status, errMsg, at)
	return affected(r.pool.Exec(ctx, `UPDATE weekly_digest_queue SET status = $1, error_message = $2, sent_at = $3 WHERE id = $4`,
		string(status), msg, sentAt, id))
}

func (r *Repository) PendingDigests(ctx context.Context, from, to time.Time) ([]core.DigestEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, week_start_date, week_end_date, status, sent_at, error_message, created_at
		FROM weekly_digest_queue
		WHERE status = 'pending' AND created_at >= $1 AND created_at < $2
		ORDER BY created_at, id`, from.UTC(), to.UTC())
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []core.DigestEntry
	for rows.Next() {
		var row storage.WeeklyDigestQueue
		if err := rows.Scan(&row.ID, &row.UserID, &row.WeekStartDate, &row.WeekEndDate, &row.Status,
			&row.SentAt, &row.ErrorMessage, &row.CreatedAt); err != nil {
			return nil, err
		}
		d, err := row.Core()
		if err != nil {
			return nil, fmt.Errorf("digest %s: %w", row.ID, err)
		}
		out = append(out, d)
	}
	return out, mapError(rows.Err())
}
