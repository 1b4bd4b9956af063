package storage

import (
	"database/sql"
	"time"
)

// Row types mirror the tables and views one to one.

type User struct {
	ID               string
	Email            string
	PasswordHash     string
	ConfirmToken     sql.NullString
	EmailConfirmedAt sql.NullTime
	CreatedAt        time.Time
}

type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type UserSetting struct {
	UserID              string
	Timezone            string
	Currency            string
	WeeklyDigestEnabled bool
	WeeklyDigestDay     int64
	EmailNotifications  bool
	BudgetAlerts        bool
	BudgetThreshold     int64
	UpdatedAt           time.Time
}

type Category struct {
	ID        string
	UserID    string
	Name      string
	Color     string
	Icon      sql.NullString
	IsDefault bool
	CreatedAt time.Time
}

type Expense struct {
	ID          string
	UserID      string
	CategoryID  string
	AmountCents int64
	Currency    string
	Description sql.NullString
	ExpenseDate string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ExpenseWithCategory struct {
	Expense
	CategoryName  string
	CategoryColor string
	CategoryIcon  sql.NullString
}

type Budget struct {
	ID          string
	UserID      string
	CategoryID  string
	AmountCents int64
	Currency    string
	Month       int64
	Year        int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type MonthlyExpenseSummary struct {
	UserID        string
	Year          int64
	Month         int64
	CategoryID    string
	CategoryName  string
	CategoryColor string
	CategoryIcon  string
	Currency      string
	ExpenseCount  int64
	TotalCents    int64
	MinCents      int64
	MaxCents      int64
}

type MonthlyBudgetOverview struct {
	BudgetID      string
	UserID        string
	CategoryID    string
	CategoryName  string
	CategoryColor string
	CategoryIcon  string
	Month         int64
	Year          int64
	Currency      string
	BudgetCents   int64
	SpentCents    int64
}

type BudgetAlert struct {
	ID           string
	UserID       string
	CategoryID   string
	BudgetID     string
	AlertType    string
	Status       string
	Month        int64
	Year         int64
	SentAt       sql.NullTime
	ErrorMessage sql.NullString
	CreatedAt    time.Time
}

type WeeklyDigestQueue struct {
	ID            string
	UserID        string
	WeekStartDate string
	WeekEndDate   string
	Status        string
	SentAt        sql.NullTime
	ErrorMessage  sql.NullString
	CreatedAt     time.Time
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
