package classify

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/storage"
)

func setupStore(t *testing.T) (*storage.SQLiteStorage, *model.User) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	user := &model.User{Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, store.CreateUser(ctx, user))
	return store, user
}

func addTransaction(t *testing.T, store *storage.SQLiteStorage, userID string, txnType model.TransactionType, description string) *model.Transaction {
	t.Helper()

	txn := &model.Transaction{
		UserID:      userID,
		Type:        txnType,
		Amount:      10,
		Description: description,
		Date:        time.Now().UTC(),
	}
	require.NoError(t, store.CreateTransaction(context.Background(), txn))
	return txn
}

func categoryNameOf(t *testing.T, store *storage.SQLiteStorage, id string) string {
	t.Helper()

	txn, err := store.GetTransactionByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, txn)
	require.NotNil(t, txn.Category, "transaction should have a category assigned")
	return txn.Category.Name
}

func TestClassifyAllKeywordMatch(t *testing.T) {
	store, user := setupStore(t)
	ctx := context.Background()

	coffee := addTransaction(t, store, user.ID, model.TransactionTypeExpense, "星巴克咖啡")
	taxi := addTransaction(t, store, user.ID, model.TransactionTypeExpense, "滴滴打车")

	updated, err := New(store).ClassifyAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	assert.Equal(t, "餐饮", categoryNameOf(t, store, coffee.ID))
	assert.Equal(t, "交通", categoryNameOf(t, store, taxi.ID))
}

func TestClassifyAllFallback(t *testing.T) {
	store, user := setupStore(t)
	ctx := context.Background()

	expense := addTransaction(t, store, user.ID, model.TransactionTypeExpense, "unrecognizable purchase")
	income := addTransaction(t, store, user.ID, model.TransactionTypeIncome, "unrecognizable deposit")

	updated, err := New(store).ClassifyAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	assert.Equal(t, OtherExpenseName, categoryNameOf(t, store, expense.ID))
	assert.Equal(t, OtherIncomeName, categoryNameOf(t, store, income.ID))
}

func TestClassifyAllPrefersExistingCategoryOverCreation(t *testing.T) {
	store, user := setupStore(t)
	ctx := context.Background()

	salary := &model.Category{UserID: user.ID, Name: "工资", Type: model.CategoryTypeIncome}
	require.NoError(t, store.CreateCategory(ctx, salary))

	// No description, so no keywords; income falls back to the user's only
	// income category rather than creating 其他收入.
	income := addTransaction(t, store, user.ID, model.TransactionTypeIncome, "")

	updated, err := New(store).ClassifyAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, "工资", categoryNameOf(t, store, income.ID))

	other, err := store.FindCategoryByName(ctx, user.ID, model.CategoryTypeIncome, OtherIncomeName)
	require.NoError(t, err)
	assert.Nil(t, other, "fallback category should not be created when one exists")
}

func TestClassifyAllSkipsNeutral(t *testing.T) {
	store, user := setupStore(t)
	ctx := context.Background()

	neutral := addTransaction(t, store, user.ID, model.TransactionTypeNeutral, "转账给朋友")

	updated, err := New(store).ClassifyAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	txn, err := store.GetTransactionByID(ctx, neutral.ID)
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Nil(t, txn.CategoryID, "neutral transactions are never categorized")
}

func TestClassifyAllEnsuresCommonCategories(t *testing.T) {
	store, user := setupStore(t)
	ctx := context.Background()

	addTransaction(t, store, user.ID, model.TransactionTypeExpense, "午餐")

	_, err := New(store).ClassifyAll(ctx, user.ID)
	require.NoError(t, err)

	for _, name := range commonCategories {
		cat, findErr := store.FindCategoryByName(ctx, user.ID, model.CategoryTypeExpense, name)
		require.NoError(t, findErr)
		assert.NotNil(t, cat, "common category %s should exist after classification", name)
	}
}

func TestClassifyAllIdempotent(t *testing.T) {
	store, user := setupStore(t)
	ctx := context.Background()

	txn := addTransaction(t, store, user.ID, model.TransactionTypeExpense, "麦当劳")

	classifier := New(store)
	first, err := classifier.ClassifyAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	firstCategory := categoryNameOf(t, store, txn.ID)

	second, err := classifier.ClassifyAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, second)
	assert.Equal(t, firstCategory, categoryNameOf(t, store, txn.ID))

	// No duplicate 餐饮 category got created by the second run.
	categories, err := store.GetCategoriesByType(ctx, user.ID, model.CategoryTypeExpense)
	require.NoError(t, err)
	seen := map[string]int{}
	for _, cat := range categories {
		seen[cat.Name]++
	}
	assert.Equal(t, 1, seen["餐饮"])
}

func TestClassifyAllConcurrentSameCategory(t *testing.T) {
	store, user := setupStore(t)
	ctx := context.Background()

	// Many transactions resolving to the same new category must yield
	// exactly one category even when classified in parallel.
	for i := 0; i < 20; i++ {
		addTransaction(t, store, user.ID, model.TransactionTypeExpense, "海底捞火锅")
	}

	updated, err := NewWithConfig(store, Config{Concurrency: 8}).ClassifyAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, updated)

	categories, err := store.GetCategoriesByType(ctx, user.ID, model.CategoryTypeExpense)
	require.NoError(t, err)
	count := 0
	for _, cat := range categories {
		if cat.Name == "餐饮" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestClassifyAllEmpty(t *testing.T) {
	store, user := setupStore(t)

	updated, err := New(store).ClassifyAll(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestNewWithConfigDefaultsConcurrency(t *testing.T) {
	store, _ := setupStore(t)

	c := NewWithConfig(store, Config{Concurrency: 0})
	assert.Equal(t, DefaultConfig().Concurrency, c.concurrency)
}
