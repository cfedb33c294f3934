package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
	"github.com/tallyhq/tally/internal/storage"
)

func setupStore(t *testing.T) (service.Storage, string) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	user := &model.User{
		Email:        "stats@example.com",
		Name:         "Stats Tester",
		PasswordHash: "x",
	}
	require.NoError(t, store.CreateUser(ctx, user))

	return store, user.ID
}

func createCategory(t *testing.T, store service.Storage, userID, name string, categoryType model.CategoryType) *model.Category {
	t.Helper()

	cat := &model.Category{
		UserID: userID,
		Name:   name,
		Type:   categoryType,
		Icon:   "📦",
		Color:  "#10B981",
	}
	require.NoError(t, store.CreateCategory(context.Background(), cat))
	return cat
}

func createTransaction(t *testing.T, store service.Storage, userID string, txnType model.TransactionType, amount float64, date time.Time, categoryID *string) *model.Transaction {
	t.Helper()

	txn := &model.Transaction{
		UserID:     userID,
		Type:       txnType,
		Amount:     amount,
		Date:       date,
		CategoryID: categoryID,
	}
	require.NoError(t, store.CreateTransaction(context.Background(), txn))
	return txn
}

func TestGetStatisticsTotalsAndBalance(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	createTransaction(t, store, userID, model.TransactionTypeExpense, 100, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), nil)
	createTransaction(t, store, userID, model.TransactionTypeIncome, 50, time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), nil)

	agg := New(store)
	data, err := agg.GetStatistics(ctx, userID, &start, &end)
	require.NoError(t, err)

	assert.Equal(t, 50.0, data.TotalIncome)
	assert.Equal(t, 100.0, data.TotalExpense)
	assert.Equal(t, -50.0, data.Balance)
}

func TestGetStatisticsNeutralExcludedFromTotals(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	createTransaction(t, store, userID, model.TransactionTypeExpense, 30, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), nil)
	createTransaction(t, store, userID, model.TransactionTypeNeutral, 500, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), nil)

	agg := New(store)
	data, err := agg.GetStatistics(ctx, userID, &start, &end)
	require.NoError(t, err)

	assert.Equal(t, 0.0, data.TotalIncome)
	assert.Equal(t, 30.0, data.TotalExpense)
	assert.Equal(t, -30.0, data.Balance)

	// Neutral transactions never appear in the distribution but do appear in
	// the recent list.
	require.Len(t, data.CategoryDistribution, 1)
	assert.Equal(t, model.TransactionTypeExpense, data.CategoryDistribution[0].Type)
	assert.Len(t, data.RecentTransactions, 2)
}

func TestGetStatisticsDistribution(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()

	food := createCategory(t, store, userID, "餐饮", model.CategoryTypeExpense)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)

	createTransaction(t, store, userID, model.TransactionTypeExpense, 75, time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), &food.ID)
	createTransaction(t, store, userID, model.TransactionTypeExpense, 25, time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC), nil)

	agg := New(store)
	data, err := agg.GetStatistics(ctx, userID, &start, &end)
	require.NoError(t, err)

	require.Len(t, data.CategoryDistribution, 2)

	byID := make(map[string]model.CategoryDistribution)
	for _, entry := range data.CategoryDistribution {
		byID[entry.CategoryID] = entry
	}

	categorized, ok := byID[food.ID]
	require.True(t, ok)
	assert.Equal(t, "餐饮", categorized.CategoryName)
	assert.Equal(t, 75.0, categorized.Amount)
	assert.InDelta(t, 75.0, categorized.Percentage, 0.001)

	unclassified, ok := byID["unclassified"]
	require.True(t, ok)
	assert.Equal(t, "未分类", unclassified.CategoryName)
	assert.Equal(t, 25.0, unclassified.Amount)
	assert.InDelta(t, 25.0, unclassified.Percentage, 0.001)
}

func TestGetStatisticsDailyTrendBuckets(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()

	// 10-day span buckets by day.
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	createTransaction(t, store, userID, model.TransactionTypeExpense, 10, time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC), nil)
	createTransaction(t, store, userID, model.TransactionTypeExpense, 20, time.Date(2024, 4, 2, 18, 0, 0, 0, time.UTC), nil)
	createTransaction(t, store, userID, model.TransactionTypeIncome, 40, time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC), nil)

	agg := New(store)
	data, err := agg.GetStatistics(ctx, userID, &start, &end)
	require.NoError(t, err)

	require.Len(t, data.MonthlyTrends, 2)
	assert.Equal(t, "2024-04-02", data.MonthlyTrends[0].Month)
	assert.Equal(t, 30.0, data.MonthlyTrends[0].Expense)
	assert.Equal(t, "2024-04-05", data.MonthlyTrends[1].Month)
	assert.Equal(t, 40.0, data.MonthlyTrends[1].Income)
}

func TestGetStatisticsMonthlyTrendBuckets(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()

	// 40-day span buckets by calendar month.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	createTransaction(t, store, userID, model.TransactionTypeExpense, 100, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), nil)
	createTransaction(t, store, userID, model.TransactionTypeExpense, 60, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), nil)
	createTransaction(t, store, userID, model.TransactionTypeIncome, 200, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), nil)

	agg := New(store)
	data, err := agg.GetStatistics(ctx, userID, &start, &end)
	require.NoError(t, err)

	require.Len(t, data.MonthlyTrends, 2)
	assert.Equal(t, "2024-01", data.MonthlyTrends[0].Month)
	assert.Equal(t, 100.0, data.MonthlyTrends[0].Expense)
	assert.Equal(t, 200.0, data.MonthlyTrends[0].Income)
	assert.Equal(t, "2024-02", data.MonthlyTrends[1].Month)
	assert.Equal(t, 60.0, data.MonthlyTrends[1].Expense)
}

func TestGetStatisticsRecentTransactions(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()

	food := createCategory(t, store, userID, "餐饮", model.CategoryTypeExpense)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

	for day := 1; day <= 7; day++ {
		createTransaction(t, store, userID, model.TransactionTypeExpense, float64(day), time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC), &food.ID)
	}

	agg := New(store)
	data, err := agg.GetStatistics(ctx, userID, &start, &end)
	require.NoError(t, err)

	require.Len(t, data.RecentTransactions, 5)
	assert.Equal(t, 7.0, data.RecentTransactions[0].Amount)
	assert.Equal(t, 3.0, data.RecentTransactions[4].Amount)
	assert.Equal(t, "餐饮", data.RecentTransactions[0].CategoryName)
	assert.Equal(t, "📦", data.RecentTransactions[0].Icon)
}

func TestGetStatisticsBudgetAlertCurrentMonth(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()

	now := time.Now()
	createTransaction(t, store, userID, model.TransactionTypeExpense, 88, now, nil)

	// Query a historical range; the budget alert still reports the current
	// calendar month.
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)

	agg := New(store)
	data, err := agg.GetStatistics(ctx, userID, &start, &end)
	require.NoError(t, err)

	require.Len(t, data.BudgetAlerts, 1)
	alert := data.BudgetAlerts[0]
	assert.Equal(t, "月度预算", alert.CategoryName)
	assert.Equal(t, 88.0, alert.Used)
	assert.Equal(t, 0.0, alert.Budget)
	assert.Equal(t, "safe", alert.Status)
}

func TestGetStatisticsInvalidRange(t *testing.T) {
	store, userID := setupStore(t)

	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	agg := New(store)
	_, err := agg.GetStatistics(context.Background(), userID, &start, &end)
	assert.Error(t, err)
}

func TestGetStatisticsDefaultRange(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()

	createTransaction(t, store, userID, model.TransactionTypeIncome, 10, time.Now().AddDate(0, 0, -1), nil)
	createTransaction(t, store, userID, model.TransactionTypeIncome, 99, time.Now().AddDate(0, 0, -60), nil)

	agg := New(store)
	data, err := agg.GetStatistics(ctx, userID, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 10.0, data.TotalIncome)
}
