package core

import "github.com/google/uuid"

// DefaultCategory describes a category seeded for every new user.
type DefaultCategory struct {
	Name  string
	Color string
	Icon  string
}

var DefaultCategoryList = []DefaultCategory{
	{Name: "Food & Dining", Color: "#EF4444", Icon: "utensils"},
	{Name: "Transportation", Color: "#3B82F6", Icon: "car"},
	{Name: "Shopping", Color: "#8B5CF6", Icon: "shopping-bag"},
	{Name: "Entertainment", Color: "#F59E0B", Icon: "film"},
	{Name: "Bills & Utilities", Color: "#10B981", Icon: "receipt"},
	{Name: "Healthcare", Color: "#EF4444", Icon: "heart"},
	{Name: "Education", Color: "#6366F1", Icon: "book-open"},
	{Name: "Personal Care", Color: "#EC4899", Icon: "sparkles"},
	{Name: "Travel", Color: "#06B6D4", Icon: "plane"},
	{Name: "Other", Color: "#6B7280", Icon: "more-horizontal"},
}

// DefaultCategoryID is deterministic per user and name so re-seeding is idempotent.
func DefaultCategoryID(userID, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(userID+":cat:"+name)).String()
}

// DefaultCategories returns the seed categories for userID.
func DefaultCategories(userID string) []Category {
	out := make([]Category, 0, len(DefaultCategoryList))
	for _, d := range DefaultCategoryList {
		out = append(out, Category{
			ID:        DefaultCategoryID(userID, d.Name),
			UserID:    userID,
			Name:      d.Name,
			Color:     d.Color,
			Icon:      d.Icon,
			IsDefault: true,
		})
	}
	return out
}

// DefaultSettings returns the settings created at sign-up.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:              userID,
		Timezone:            DefaultTimezone,
		Currency:            DefaultCurrency,
		WeeklyDigestEnabled: true,
		WeeklyDigestDay:     1,
		EmailNotifications:  true,
		BudgetAlerts:        true,
		BudgetThreshold:     DefaultBudgetThreshold,
	}
}

// NewID returns a random row id.
func NewID() string {
	return uuid.NewString()
}
