package storage

import (
	"database/sql"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/report"
)

// Conversions between row types and domain types. Shared by every SQL backend.

func (u User) Core() core.User {
	out := core.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		ConfirmToken: u.ConfirmToken.String,
		CreatedAt:    u.CreatedAt,
	}
	if u.EmailConfirmedAt.Valid {
		t := u.EmailConfirmedAt.Time
		out.EmailConfirmedAt = &t
	}
	return out
}

func UserRow(u core.User) User {
	return User{
		ID:               u.ID,
		Email:            u.Email,
		PasswordHash:     u.PasswordHash,
		ConfirmToken:     nullString(u.ConfirmToken),
		EmailConfirmedAt: nullTime(u.EmailConfirmedAt),
		CreatedAt:        u.CreatedAt.UTC(),
	}
}

func (s Session) Core() core.Session {
	return core.Session{Token: s.Token, UserID: s.UserID, ExpiresAt: s.ExpiresAt, CreatedAt: s.CreatedAt}
}

func SessionRow(s core.Session) Session {
	return Session{Token: s.Token, UserID: s.UserID, ExpiresAt: s.ExpiresAt.UTC(), CreatedAt: s.CreatedAt.UTC()}
}

func (s UserSetting) Core() core.Settings {
	return core.Settings{
		UserID:              s.UserID,
		Timezone:            s.Timezone,
		Currency:            core.Currency(s.Currency),
		WeeklyDigestEnabled: s.WeeklyDigestEnabled,
		WeeklyDigestDay:     int(s.WeeklyDigestDay),
		EmailNotifications:  s.EmailNotifications,
		BudgetAlerts:        s.BudgetAlerts,
		BudgetThreshold:     int(s.BudgetThreshold),
		UpdatedAt:           s.UpdatedAt,
	}
}

func SettingsRow(s core.Settings) UserSetting {
	return UserSetting{
		UserID:              s.UserID,
		Timezone:            s.Timezone,
		Currency:            string(s.Currency),
		WeeklyDigestEnabled: s.WeeklyDigestEnabled,
		WeeklyDigestDay:     int64(s.WeeklyDigestDay),
		EmailNotifications:  s.EmailNotifications,
		BudgetAlerts:        s.BudgetAlerts,
		BudgetThreshold:     int64(s.BudgetThreshold),
		UpdatedAt:           s.UpdatedAt.UTC(),
	}
}

func (c Category) Core() core.Category {
	return core.Category{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Color:     c.Color,
		Icon:      c.Icon.String,
		IsDefault: c.IsDefault,
		CreatedAt: c.CreatedAt,
	}
}

func CategoryRow(c core.Category) Category {
	return Category{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Color:     c.Color,
		Icon:      nullString(c.Icon),
		IsDefault: c.IsDefault,
		CreatedAt: c.CreatedAt.UTC(),
	}
}

func (e Expense) Core() (core.Expense, error) {
	d, err := core.ParseDate(e.ExpenseDate)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:          e.ID,
		UserID:      e.UserID,
		CategoryID:  e.CategoryID,
		Amount:      core.Money{Cents: e.AmountCents},
		Currency:    core.Currency(e.Currency),
		Description: e.Description.String,
		Date:        d,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}, nil
}

func ExpenseRow(e core.Expense) Expense {
	return Expense{
		ID:          e.ID,
		UserID:      e.UserID,
		CategoryID:  e.CategoryID,
		AmountCents: e.Amount.Cents,
		Currency:    string(e.Currency),
		Description: nullString(e.Description),
		ExpenseDate: e.Date.String(),
		CreatedAt:   e.CreatedAt.UTC(),
		UpdatedAt:   e.UpdatedAt.UTC(),
	}
}

func (e ExpenseWithCategory) Core() (core.ExpenseDetail, error) {
	exp, err := e.Expense.Core()
	if err != nil {
		return core.ExpenseDetail{}, err
	}
	return core.ExpenseDetail{
		Expense:       exp,
		CategoryName:  e.CategoryName,
		CategoryColor: e.CategoryColor,
		CategoryIcon:  e.CategoryIcon.String,
	}, nil
}

func ExpenseDetails(rows []ExpenseWithCategory) ([]core.ExpenseDetail, error) {
	out := make([]core.ExpenseDetail, 0, len(rows))
	for _, r := range rows {
		d, err := r.Core()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (b Budget) Core() core.Budget {
	return core.Budget{
		ID:         b.ID,
		UserID:     b.UserID,
		CategoryID: b.CategoryID,
		Amount:     core.Money{Cents: b.AmountCents},
		Currency:   core.Currency(b.Currency),
		Month:      int(b.Month),
		Year:       int(b.Year),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func BudgetRow(b core.Budget) Budget {
	return Budget{
		ID:          b.ID,
		UserID:      b.UserID,
		CategoryID:  b.CategoryID,
		AmountCents: b.Amount.Cents,
		Currency:    string(b.Currency),
		Month:       int64(b.Month),
		Year:        int64(b.Year),
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
	}
}

func (s MonthlyExpenseSummary) Core() core.MonthlySummary {
	total := core.Money{Cents: s.TotalCents}
	return core.MonthlySummary{
		UserID:        s.UserID,
		Year:          int(s.Year),
		Month:         int(s.Month),
		CategoryID:    s.CategoryID,
		CategoryName:  s.CategoryName,
		CategoryColor: s.CategoryColor,
		CategoryIcon:  s.CategoryIcon,
		Currency:      core.Currency(s.Currency),
		Count:         int(s.ExpenseCount),
		Total:         total,
		Average:       total.Div(int(s.ExpenseCount)),
		Min:           core.Money{Cents: s.MinCents},
		Max:           core.Money{Cents: s.MaxCents},
	}
}

// Core converts the row and derives its usage figures.
func (b MonthlyBudgetOverview) Core() core.BudgetOverview {
	row := core.BudgetOverview{
		BudgetID:      b.BudgetID,
		UserID:        b.UserID,
		CategoryID:    b.CategoryID,
		CategoryName:  b.CategoryName,
		CategoryColor: b.CategoryColor,
		CategoryIcon:  b.CategoryIcon,
		Month:         int(b.Month),
		Year:          int(b.Year),
		Currency:      core.Currency(b.Currency),
		BudgetAmount:  core.Money{Cents: b.BudgetCents},
		SpentAmount:   core.Money{Cents: b.SpentCents},
	}
	report.ApplyBudgetStatus(&row)
	return row
}

func AlertRow(a core.BudgetAlert) BudgetAlert {
	status := a.Status
	if status == "" {
		status = core.StatusPending
	}
	return BudgetAlert{
		ID:           a.ID,
		UserID:       a.UserID,
		CategoryID:   a.CategoryID,
		BudgetID:     a.BudgetID,
		AlertType:    string(a.Type),
		Status:       string(status),
		Month:        int64(a.Month),
		Year:         int64(a.Year),
		SentAt:       nullTime(a.SentAt),
		ErrorMessage: nullString(a.ErrorMessage),
		CreatedAt:    a.CreatedAt.UTC(),
	}
}

func (d WeeklyDigestQueue) Core() (core.DigestEntry, error) {
	start, err := core.ParseDate(d.WeekStartDate)
	if err != nil {
		return core.DigestEntry{}, err
	}
	end, err := core.ParseDate(d.WeekEndDate)
	if err != nil {
		return core.DigestEntry{}, err
	}
	var sentAt *time.Time
	if d.SentAt.Valid {
		t := d.SentAt.Time
		sentAt = &t
	}
	return core.DigestEntry{
		ID:           d.ID,
		UserID:       d.UserID,
		WeekStart:    start,
		WeekEnd:      end,
		Status:       core.DeliveryStatus(d.Status),
		SentAt:       sentAt,
		ErrorMessage: d.ErrorMessage.String,
		CreatedAt:    d.CreatedAt,
	}, nil
}

func DigestRow(d core.DigestEntry) WeeklyDigestQueue {
	status := d.Status
	if status == "" {
		status = core.StatusPending
	}
	return WeeklyDigestQueue{
		ID:            d.ID,
		UserID:        d.UserID,
		WeekStartDate: d.WeekStart.String(),
		WeekEndDate:   d.WeekEnd.String(),
		Status:        string(status),
		SentAt:        nullTime(d.SentAt),
		ErrorMessage:  nullString(d.ErrorMessage),
		CreatedAt:     d.CreatedAt.UTC(),
	}
}

// DeliveryColumns returns the error_message and sent_at values for a status change.
// sent_at is only set for sent rows.
func DeliveryColumns(status core.DeliveryStatus, errMsg string, at time.Time) (sql.NullString, sql.NullTime) {
	var sentAt sql.NullTime
	if status == core.StatusSent {
		sentAt = sql.NullTime{Time: at.UTC(), Valid: true}
	}
	return nullString(errMsg), sentAt
}
