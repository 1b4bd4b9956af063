package storage

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// --- users & sessions ---

const userColumns = `id, email, password_hash, confirm_token, email_confirmed_at, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.ConfirmToken, &u.EmailConfirmedAt, &u.CreatedAt)
	return u, err
}

const createUser = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, u User) error {
	_, err := q.db.ExecContext(ctx, createUser, u.ID, u.Email, u.PasswordHash, u.ConfirmToken, u.EmailConfirmedAt, u.CreatedAt)
	return err
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const confirmUser = `UPDATE users SET email_confirmed_at = ?, confirm_token = NULL
WHERE confirm_token = ?
RETURNING ` + userColumns

func (q *Queries) ConfirmUser(ctx context.Context, token string, at time.Time) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, confirmUser, at, token))
}

const createSession = `INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateSession(ctx context.Context, s Session) error {
	_, err := q.db.ExecContext(ctx, createSession, s.Token, s.UserID, s.ExpiresAt, s.CreatedAt)
	return err
}

const getSession = `SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?`

func (q *Queries) GetSession(ctx context.Context, token string) (Session, error) {
	var s Session
	err := q.db.QueryRowContext(ctx, getSession, token).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

const extendSession = `UPDATE sessions SET expires_at = ? WHERE token = ?`

func (q *Queries) ExtendSession(ctx context.Context, token string, expiresAt time.Time) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, extendSession, expiresAt, token))
}

const deleteSession = `DELETE FROM sessions WHERE token = ?`

func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, token)
	return err
}

const deleteExpiredSessions = `DELETE FROM sessions WHERE expires_at < ?`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, deleteExpiredSessions, now))
}

// --- settings ---

const settingsColumns = `user_id, timezone, currency, weekly_digest_enabled, weekly_digest_day,
email_notifications, budget_alerts, budget_threshold, updated_at`

func scanSettings(row interface{ Scan(...any) error }) (UserSetting, error) {
	var s UserSetting
	err := row.Scan(&s.UserID, &s.Timezone, &s.Currency, &s.WeeklyDigestEnabled, &s.WeeklyDigestDay,
		&s.EmailNotifications, &s.BudgetAlerts, &s.BudgetThreshold, &s.UpdatedAt)
	return s, err
}

const createSettings = `INSERT INTO user_settings (` + settingsColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateSettings(ctx context.Context, s UserSetting) error {
	_, err := q.db.ExecContext(ctx, createSettings, s.UserID, s.Timezone, s.Currency, s.WeeklyDigestEnabled,
		s.WeeklyDigestDay, s.EmailNotifications, s.BudgetAlerts, s.BudgetThreshold, s.UpdatedAt)
	return err
}

const getSettings = `SELECT ` + settingsColumns + ` FROM user_settings WHERE user_id = ?`

func (q *Queries) GetSettings(ctx context.Context, userID string) (UserSetting, error) {
	return scanSettings(q.db.QueryRowContext(ctx, getSettings, userID))
}

const updateSettings = `UPDATE user_settings SET timezone = ?, currency = ?, weekly_digest_enabled = ?,
weekly_digest_day = ?, email_notifications = ?, budget_alerts = ?, budget_threshold = ?, updated_at = ?
WHERE user_id = ?`

func (q *Queries) UpdateSettings(ctx context.Context, s UserSetting) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateSettings, s.Timezone, s.Currency, s.WeeklyDigestEnabled,
		s.WeeklyDigestDay, s.EmailNotifications, s.BudgetAlerts, s.BudgetThreshold, s.UpdatedAt, s.UserID))
}

const listDigestSubscribers = `SELECT ` + settingsColumns + ` FROM user_settings
WHERE weekly_digest_enabled = 1 ORDER BY user_id`

func (q *Queries) ListDigestSubscribers(ctx context.Context) ([]UserSetting, error) {
	rows, err := q.db.QueryContext(ctx, listDigestSubscribers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UserSetting
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// --- categories ---

const categoryColumns = `id, user_id, name, color, icon, is_default, created_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Icon, &c.IsDefault, &c.CreatedAt)
	return c, err
}

const createCategory = `INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateCategory(ctx context.Context, c Category) error {
	_, err := q.db.ExecContext(ctx, createCategory, c.ID, c.UserID, c.Name, c.Color, c.Icon, c.IsDefault, c.CreatedAt)
	return err
}

const seedCategory = createCategory + ` ON CONFLICT DO NOTHING`

// SeedCategory inserts a category unless its id or (user, name) already exists.
func (q *Queries) SeedCategory(ctx context.Context, c Category) error {
	_, err := q.db.ExecContext(ctx, seedCategory, c.ID, c.UserID, c.Name, c.Color, c.Icon, c.IsDefault, c.CreatedAt)
	return err
}

const listCategories = `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = ?
ORDER BY is_default DESC, name`

func (q *Queries) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const getCategory = `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = ? AND id = ?`

func (q *Queries) GetCategory(ctx context.Context, userID, id string) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx, getCategory, userID, id))
}

const updateCategory = `UPDATE categories SET name = ?, color = ?, icon = ? WHERE user_id = ? AND id = ?`

func (q *Queries) UpdateCategory(ctx context.Context, c Category) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateCategory, c.Name, c.Color, c.Icon, c.UserID, c.ID))
}

const countCategoryExpenses = `SELECT COUNT(*) FROM expenses WHERE user_id = ? AND category_id = ?`

func (q *Queries) CountCategoryExpenses(ctx context.Context, userID, categoryID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCategoryExpenses, userID, categoryID).Scan(&n)
	return n, err
}

const countCategoryBudgets = `SELECT COUNT(*) FROM budgets WHERE user_id = ? AND category_id = ?`

func (q *Queries) CountCategoryBudgets(ctx context.Context, userID, categoryID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCategoryBudgets, userID, categoryID).Scan(&n)
	return n, err
}

const reassignExpenses = `UPDATE expenses SET category_id = ?, updated_at = ? WHERE user_id = ? AND category_id = ?`

func (q *Queries) ReassignExpenses(ctx context.Context, userID, from, to string, at time.Time) error {
	_, err := q.db.ExecContext(ctx, reassignExpenses, to, at, userID, from)
	return err
}

// Budgets whose month already has a budget in the target category are left
// behind and removed with the category.
const reassignBudgets = `UPDATE budgets SET category_id = ?, updated_at = ?
WHERE user_id = ? AND category_id = ?
  AND NOT EXISTS (
    SELECT 1 FROM budgets t
    WHERE t.user_id = budgets.user_id AND t.category_id = ? AND t.month = budgets.month AND t.year = budgets.year
  )`

func (q *Queries) ReassignBudgets(ctx context.Context, userID, from, to string, at time.Time) error {
	_, err := q.db.ExecContext(ctx, reassignBudgets, to, at, userID, from, to)
	return err
}

const deleteCategoryBudgets = `DELETE FROM budgets WHERE user_id = ? AND category_id = ?`

func (q *Queries) DeleteCategoryBudgets(ctx context.Context, userID, categoryID string) error {
	_, err := q.db.ExecContext(ctx, deleteCategoryBudgets, userID, categoryID)
	return err
}

const deleteCategory = `DELETE FROM categories WHERE user_id = ? AND id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, userID, id string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, deleteCategory, userID, id))
}

// --- expenses ---

const createExpense = `INSERT INTO expenses (id, user_id, category_id, amount_cents, currency, description,
expense_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateExpense(ctx context.Context, e Expense) error {
	_, err := q.db.ExecContext(ctx, createExpense, e.ID, e.UserID, e.CategoryID, e.AmountCents, e.Currency,
		e.Description, e.ExpenseDate, e.CreatedAt, e.UpdatedAt)
	return err
}

const updateExpense = `UPDATE expenses SET category_id = ?, amount_cents = ?, currency = ?, description = ?,
expense_date = ?, updated_at = ? WHERE user_id = ? AND id = ?`

func (q *Queries) UpdateExpense(ctx context.Context, e Expense) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateExpense, e.CategoryID, e.AmountCents, e.Currency,
		e.Description, e.ExpenseDate, e.UpdatedAt, e.UserID, e.ID))
}

const deleteExpense = `DELETE FROM expenses WHERE user_id = ? AND id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, userID, id string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, deleteExpense, userID, id))
}

const expenseWithCategoryColumns = `e.id, e.user_id, e.category_id, e.amount_cents, e.currency, e.description,
e.expense_date, e.created_at, e.updated_at, c.name, c.color, c.icon`

func scanExpenseWithCategory(row interface{ Scan(...any) error }) (ExpenseWithCategory, error) {
	var e ExpenseWithCategory
	err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.AmountCents, &e.Currency, &e.Description,
		&e.ExpenseDate, &e.CreatedAt, &e.UpdatedAt, &e.CategoryName, &e.CategoryColor, &e.CategoryIcon)
	return e, err
}

func (q *Queries) listExpenses(ctx context.Context, query string, args ...any) ([]ExpenseWithCategory, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseWithCategory
	for rows.Next() {
		e, err := scanExpenseWithCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const getExpense = `SELECT ` + expenseWithCategoryColumns + `
FROM expenses e JOIN categories c ON c.id = e.category_id
WHERE e.user_id = ? AND e.id = ?`

func (q *Queries) GetExpense(ctx context.Context, userID, id string) (ExpenseWithCategory, error) {
	return scanExpenseWithCategory(q.db.QueryRowContext(ctx, getExpense, userID, id))
}

const listExpensesInRange = `SELECT ` + expenseWithCategoryColumns + `
FROM expenses e JOIN categories c ON c.id = e.category_id
WHERE e.user_id = ? AND e.expense_date >= ? AND e.expense_date <= ?
ORDER BY e.expense_date DESC, e.created_at DESC`

func (q *Queries) ListExpensesInRange(ctx context.Context, userID, start, end string) ([]ExpenseWithCategory, error) {
	return q.listExpenses(ctx, listExpensesInRange, userID, start, end)
}

const listRecentExpenses = `SELECT ` + expenseWithCategoryColumns + `
FROM expenses e JOIN categories c ON c.id = e.category_id
WHERE e.user_id = ?
ORDER BY e.expense_date DESC, e.created_at DESC
LIMIT ?`

func (q *Queries) ListRecentExpenses(ctx context.Context, userID string, limit int64) ([]ExpenseWithCategory, error) {
	return q.listExpenses(ctx, listRecentExpenses, userID, limit)
}

// --- budgets ---

const budgetColumns = `id, user_id, category_id, amount_cents, currency, month, year, created_at, updated_at`

func scanBudget(row interface{ Scan(...any) error }) (Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.AmountCents, &b.Currency, &b.Month, &b.Year, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

const createBudget = `INSERT INTO budgets (` + budgetColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateBudget(ctx context.Context, b Budget) error {
	_, err := q.db.ExecContext(ctx, createBudget, b.ID, b.UserID, b.CategoryID, b.AmountCents, b.Currency,
		b.Month, b.Year, b.CreatedAt, b.UpdatedAt)
	return err
}

const updateBudget = `UPDATE budgets SET amount_cents = ?, currency = ?, updated_at = ? WHERE user_id = ? AND id = ?`

func (q *Queries) UpdateBudget(ctx context.Context, b Budget) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateBudget, b.AmountCents, b.Currency, b.UpdatedAt, b.UserID, b.ID))
}

const deleteBudget = `DELETE FROM budgets WHERE user_id = ? AND id = ?`

func (q *Queries) DeleteBudget(ctx context.Context, userID, id string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, deleteBudget, userID, id))
}

const getBudget = `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ? AND id = ?`

func (q *Queries) GetBudget(ctx context.Context, userID, id string) (Budget, error) {
	return scanBudget(q.db.QueryRowContext(ctx, getBudget, userID, id))
}

const findBudget = `SELECT ` + budgetColumns + ` FROM budgets
WHERE user_id = ? AND category_id = ? AND month = ? AND year = ?`

func (q *Queries) FindBudget(ctx context.Context, userID, categoryID string, month, year int64) (Budget, error) {
	return scanBudget(q.db.QueryRowContext(ctx, findBudget, userID, categoryID, month, year))
}

// --- views ---

type PeriodParams struct {
	UserID   string
	FromYear int64
	ToYear   int64
	Year     int64
	Month    int64
	Limit    int64
}

const listMonthlySummaries = `SELECT user_id, year, month, category_id, category_name, category_color, category_icon,
currency, expense_count, total_cents, min_cents, max_cents
FROM monthly_expense_summary
WHERE user_id = ?1
  AND (?2 = 0 OR year >= ?2)
  AND (?3 = 0 OR year <= ?3)
  AND (?4 = 0 OR year = ?4)
  AND (?5 = 0 OR month = ?5)
ORDER BY year DESC, month DESC, total_cents DESC`

func (q *Queries) ListMonthlySummaries(ctx context.Context, p PeriodParams) ([]MonthlyExpenseSummary, error) {
	rows, err := q.db.QueryContext(ctx, listMonthlySummaries, p.UserID, p.FromYear, p.ToYear, p.Year, p.Month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MonthlyExpenseSummary
	for rows.Next() {
		var s MonthlyExpenseSummary
		if err := rows.Scan(&s.UserID, &s.Year, &s.Month, &s.CategoryID, &s.CategoryName, &s.CategoryColor,
			&s.CategoryIcon, &s.Currency, &s.ExpenseCount, &s.TotalCents, &s.MinCents, &s.MaxCents); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const listBudgetOverview = `SELECT budget_id, user_id, category_id, category_name, category_color, category_icon,
month, year, currency, budget_cents, spent_cents
FROM monthly_budget_overview
WHERE user_id = ?1
  AND (?2 = 0 OR year >= ?2)
  AND (?3 = 0 OR year <= ?3)
  AND (?4 = 0 OR year = ?4)
  AND (?5 = 0 OR month = ?5)
ORDER BY year DESC, month DESC, category_name
LIMIT ?6`

func (q *Queries) ListBudgetOverview(ctx context.Context, p PeriodParams) ([]MonthlyBudgetOverview, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.db.QueryContext(ctx, listBudgetOverview, p.UserID, p.FromYear, p.ToYear, p.Year, p.Month, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MonthlyBudgetOverview
	for rows.Next() {
		var b MonthlyBudgetOverview
		if err := rows.Scan(&b.BudgetID, &b.UserID, &b.CategoryID, &b.CategoryName, &b.CategoryColor, &b.CategoryIcon,
			&b.Month, &b.Year, &b.Currency, &b.BudgetCents, &b.SpentCents); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// --- alerts & digests ---

const insertAlert = `INSERT INTO budget_alerts (id, user_id, category_id, budget_id, alert_type, status, month, year, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (budget_id, alert_type) DO NOTHING`

func (q *Queries) InsertAlert(ctx context.Context, a BudgetAlert) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, insertAlert, a.ID, a.UserID, a.CategoryID, a.BudgetID, a.AlertType,
		a.Status, a.Month, a.Year, a.CreatedAt))
}

const updateAlertStatus = `UPDATE budget_alerts SET status = ?, error_message = ?, sent_at = ? WHERE id = ?`

func (q *Queries) UpdateAlertStatus(ctx context.Context, id, status string, errMsg sql.NullString, sentAt sql.NullTime) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateAlertStatus, status, errMsg, sentAt, id))
}

const insertDigest = `INSERT INTO weekly_digest_queue (id, user_id, week_start_date, week_end_date, status, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, week_start_date) DO NOTHING`

func (q *Queries) InsertDigest(ctx context.Context, d WeeklyDigestQueue) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, insertDigest, d.ID, d.UserID, d.WeekStartDate, d.WeekEndDate, d.Status, d.CreatedAt))
}

const updateDigestStatus = `UPDATE weekly_digest_queue SET status = ?, error_message = ?, sent_at = ? WHERE id = ?`

func (q *Queries) UpdateDigestStatus(ctx context.Context, id, status string, errMsg sql.NullString, sentAt sql.NullTime) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateDigestStatus, status, errMsg, sentAt, id))
}

const digestColumns = `id, user_id, week_start_date, week_end_date, status, sent_at, error_message, created_at`

const listPendingDigests = `SELECT ` + digestColumns + ` FROM weekly_digest_queue
WHERE status = 'pending' AND created_at >= ? AND created_at < ?
ORDER BY created_at, id`

func (q *Queries) ListPendingDigests(ctx context.Context, from, to time.Time) ([]WeeklyDigestQueue, error) {
	rows, err := q.db.QueryContext(ctx, listPendingDigests, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WeeklyDigestQueue
	for rows.Next() {
		var d WeeklyDigestQueue
		if err := rows.Scan(&d.ID, &d.UserID, &d.WeekStartDate, &d.WeekEndDate, &d.Status,
			&d.SentAt, &d.ErrorMessage, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func rowsAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
