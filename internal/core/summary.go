package core

import "time"

// ExpenseDetail is an expense joined with its category.
type ExpenseDetail struct {
	Expense
	CategoryName  string
	CategoryColor string
	CategoryIcon  string
}

// MonthlySummary is one row of the per user/year/month/category expense summary.
type MonthlySummary struct {
	UserID        string
	Year          int
	Month         int // 1-12
	CategoryID    string
	CategoryName  string
	CategoryColor string
	CategoryIcon  string
	Currency      Currency
	Count         int
	Total         Money
	Average       Money
	Min           Money
	Max           Money
}

// BudgetOverview is a budget compared with what was spent in its month.
// PercentageUsed, Remaining and IsOverBudget are derived from the two amounts.
type BudgetOverview struct {
	BudgetID       string
	UserID         string
	CategoryID     string
	CategoryName   string
	CategoryColor  string
	CategoryIcon   string
	Month          int
	Year           int
	Currency       Currency
	BudgetAmount   Money
	SpentAmount    Money
	Remaining      Money
	PercentageUsed float64
	IsOverBudget   bool
}

type AlertType string

const (
	AlertBudgetThreshold AlertType = "budget_80_percent"
	AlertBudgetExceeded  AlertType = "budget_exceeded"
)

type DeliveryStatus string

const (
	StatusPending DeliveryStatus = "pending"
	StatusSent    DeliveryStatus = "sent"
	StatusFailed  DeliveryStatus = "failed"
)

// BudgetAlert records that a budget crossed the user's threshold or its limit.
type BudgetAlert struct {
	ID           string
	UserID       string
	CategoryID   string
	BudgetID     string
	Type         AlertType
	Status       DeliveryStatus
	Month        int
	Year         int
	SentAt       *time.Time
	ErrorMessage string
	CreatedAt    time.Time
}

// DigestEntry is a queued weekly digest for one user and week.
type DigestEntry struct {
	ID           string
	UserID       string
	WeekStart    Date
	WeekEnd      Date
	Status       DeliveryStatus
	SentAt       *time.Time
	ErrorMessage string
	CreatedAt    time.Time
}
