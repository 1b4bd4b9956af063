package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// MaxAmountCents is the largest amount accepted for expenses and budgets (999,999.99).
	MaxAmountCents = 99_999_999

	MaxDescriptionLength  = 255
	MaxCategoryNameLength = 50

	MinBudgetYear = 2020
	MaxBudgetYear = 2100

	MinBudgetThreshold     = 50
	MaxBudgetThreshold     = 100
	DefaultBudgetThreshold = 80

	// NearLimitPercent is the usage at which a budget is flagged as near its limit.
	NearLimitPercent = 80.0
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID               string
		Email            string
		PasswordHash     string
		ConfirmToken     string
		EmailConfirmedAt *time.Time
		CreatedAt        time.Time
	}

	Session struct {
		Token     string
		UserID    string
		ExpiresAt time.Time
		CreatedAt time.Time
	}

	Settings struct {
		UserID              string
		Timezone            string
		Currency            Currency
		WeeklyDigestEnabled bool
		WeeklyDigestDay     int // 0 = Sunday
		EmailNotifications  bool
		BudgetAlerts        bool
		BudgetThreshold     int // percent, 50-100
		UpdatedAt           time.Time
	}

	Category struct {
		ID        string
		UserID    string
		Name      string
		Color     string
		Icon      string
		IsDefault bool
		CreatedAt time.Time
	}

	Expense struct {
		ID          string
		UserID      string
		CategoryID  string
		Amount      Money
		Currency    Currency
		Description string
		Date        Date
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Budget struct {
		ID         string
		UserID     string
		CategoryID string
		Amount     Money
		Currency   Currency
		Month      int
		Year       int
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrAmountTooLarge     = errors.New("amount too large")
	ErrDescriptionTooLong = errors.New("description too long (max 255 characters)")
	ErrEmptyCategory      = errors.New("category is required")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrInvalidColor       = errors.New("invalid color")
	ErrInvalidName        = errors.New("invalid category name")
	ErrInvalidTimezone    = errors.New("invalid timezone")
	ErrInvalidDigestDay   = errors.New("invalid weekly digest day")
	ErrInvalidThreshold   = errors.New("invalid budget threshold")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.Cents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if len([]rune(e.Description)) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if b.Amount.Cents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	if strings.TrimSpace(b.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < MinBudgetYear || b.Year > MaxBudgetYear {
		return ErrInvalidYear
	}
	if !b.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	return nil
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" || len([]rune(name)) > MaxCategoryNameLength {
		return ErrInvalidName
	}
	if !IsHexColor(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (s Settings) Validate() error {
	if _, err := time.LoadLocation(s.Timezone); err != nil || strings.TrimSpace(s.Timezone) == "" {
		return ErrInvalidTimezone
	}
	if !s.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	if s.WeeklyDigestDay < 0 || s.WeeklyDigestDay > 6 {
		return ErrInvalidDigestDay
	}
	if s.BudgetThreshold < MinBudgetThreshold || s.BudgetThreshold > MaxBudgetThreshold {
		return ErrInvalidThreshold
	}
	return nil
}

// Location returns the settings timezone, falling back to the default zone.
func (s Settings) Location() *time.Location {
	return LoadLocation(s.Timezone)
}

// IsHexColor reports whether s is a #RRGGBB color (case-insensitive).
func IsHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
