package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
	"spendwise/internal/storage"
)

// Runs against a disposable database named by SPENDWISE_TEST_DATABASE_URL.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	url := os.Getenv("SPENDWISE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SPENDWISE_TEST_DATABASE_URL not set")
	}
	repo, err := New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepositoryLedger(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	user := core.User{ID: core.NewID(), Email: core.NewID() + "@example.com", PasswordHash: "hash", CreatedAt: now}
	require.NoError(t, repo.CreateAccount(ctx, user, core.DefaultSettings(user.ID), core.DefaultCategories(user.ID)))

	cats, err := repo.ListCategories(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, cats, len(core.DefaultCategoryList))

	food := core.DefaultCategoryID(user.ID, "Food & Dining")
	budget := core.Budget{ID: core.NewID(), UserID: user.ID, CategoryID: food, Amount: core.Money{Cents: 10000},
		Currency: core.CAD, Month: 3, Year: 2024, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateBudget(ctx, budget))

	dup := budget
	dup.ID = core.NewID()
	assert.True(t, errors.Is(repo.CreateBudget(ctx, dup), storage.ErrDuplicate))

	for _, e := range []struct {
		cents int64
		date  core.Date
	}{{6000, core.NewDate(2024, 3, 1)}, {3000, core.NewDate(2024, 3, 31)}, {999, core.NewDate(2024, 4, 1)}} {
		require.NoError(t, repo.CreateExpense(ctx, core.Expense{ID: core.NewID(), UserID: user.ID, CategoryID: food,
			Amount: core.Money{Cents: e.cents}, Currency: core.CAD, Date: e.date, CreatedAt: now, UpdatedAt: now}))
	}

	overview, err := repo.ListBudgetOverview(ctx, user.ID, storage.PeriodFilter{Year: 2024, Month: 3}, 0)
	require.NoError(t, err)
	require.Len(t, overview, 1)
	assert.EqualValues(t, 9000, overview[0].SpentAmount.Cents)
	assert.InDelta(t, 90.0, overview[0].PercentageUsed, 0.001)

	summaries, err := repo.ListMonthlySummaries(ctx, user.ID, storage.PeriodFilter{Year: 2024})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 4, summaries[0].Month)
	assert.EqualValues(t, 4500, summaries[1].Average.Cents)

	assert.True(t, errors.Is(repo.DeleteCategory(ctx, user.ID, food, ""), storage.ErrInUse))
}
