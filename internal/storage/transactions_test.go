package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

// Helper function to create a test transaction.
func createTestTransaction(t *testing.T, store *SQLiteStorage, userID string, txnType model.TransactionType, amount float64, categoryID *string, date time.Time) *model.Transaction {
	t.Helper()

	txn := &model.Transaction{
		UserID:     userID,
		Type:       txnType,
		Amount:     amount,
		CategoryID: categoryID,
		Date:       date,
	}
	require.NoError(t, store.CreateTransaction(context.Background(), txn))
	return txn
}

func TestCreateTransaction(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice@example.com")
	cat := createTestCategory(t, store, user.ID, "餐饮", model.CategoryTypeExpense)

	txn := &model.Transaction{
		UserID:      user.ID,
		Type:        model.TransactionTypeExpense,
		Amount:      42.50,
		CategoryID:  &cat.ID,
		Description: "午餐",
		Date:        time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateTransaction(ctx, txn))
	assert.NotEmpty(t, txn.ID)

	found, err := store.GetTransactionByID(ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 42.50, found.Amount)
	assert.Equal(t, "午餐", found.Description)
	require.NotNil(t, found.Category, "category should be hydrated on read")
	assert.Equal(t, "餐饮", found.Category.Name)
}

func TestCreateTransactionValidation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice@example.com")

	tests := []struct {
		name string
		txn  *model.Transaction
	}{
		{"nil transaction", nil},
		{"missing user", &model.Transaction{Type: model.TransactionTypeExpense, Amount: 1, Date: time.Now()}},
		{"bad type", &model.Transaction{UserID: user.ID, Type: "transfer", Amount: 1, Date: time.Now()}},
		{"zero amount", &model.Transaction{UserID: user.ID, Type: model.TransactionTypeExpense, Amount: 0, Date: time.Now()}},
		{"negative amount", &model.Transaction{UserID: user.ID, Type: model.TransactionTypeExpense, Amount: -5, Date: time.Now()}},
		{"missing date", &model.Transaction{UserID: user.ID, Type: model.TransactionTypeExpense, Amount: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, store.CreateTransaction(ctx, tt.txn))
		})
	}
}

func TestGetTransactionsFilters(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice@example.com")
	cat := createTestCategory(t, store, user.ID, "餐饮", model.CategoryTypeExpense)

	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	createTestTransaction(t, store, user.ID, model.TransactionTypeExpense, 10, &cat.ID, jan)
	createTestTransaction(t, store, user.ID, model.TransactionTypeExpense, 20, nil, feb)
	createTestTransaction(t, store, user.ID, model.TransactionTypeIncome, 100, nil, mar)

	// Another user's data never leaks in.
	other := createTestUser(t, store, "bob@example.com")
	createTestTransaction(t, store, other.ID, model.TransactionTypeExpense, 999, nil, feb)

	all, err := store.GetTransactions(ctx, user.ID, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 100.0, all[0].Amount, "newest first")

	byType, err := store.GetTransactions(ctx, user.ID, service.TransactionFilter{Type: model.TransactionTypeExpense})
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	byCategory, err := store.GetTransactions(ctx, user.ID, service.TransactionFilter{CategoryID: cat.ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, 10.0, byCategory[0].Amount)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	byRange, err := store.GetTransactions(ctx, user.ID, service.TransactionFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	require.Len(t, byRange, 1)
	assert.Equal(t, 20.0, byRange[0].Amount)

	limited, err := store.GetTransactions(ctx, user.ID, service.TransactionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = store.GetTransactions(ctx, user.ID, service.TransactionFilter{StartDate: &end, EndDate: &start})
	require.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestUpdateTransaction(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice@example.com")
	cat := createTestCategory(t, store, user.ID, "交通", model.CategoryTypeExpense)

	txn := createTestTransaction(t, store, user.ID, model.TransactionTypeExpense, 10, nil, time.Now().UTC())

	txn.Amount = 15.5
	txn.CategoryID = &cat.ID
	txn.Description = "地铁"
	require.NoError(t, store.UpdateTransaction(ctx, txn))

	found, err := store.GetTransactionByID(ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 15.5, found.Amount)
	assert.Equal(t, "地铁", found.Description)
	require.NotNil(t, found.Category)
	assert.Equal(t, "交通", found.Category.Name)

	missing := &model.Transaction{
		ID:     "no-such-id",
		UserID: user.ID,
		Type:   model.TransactionTypeExpense,
		Amount: 1,
		Date:   time.Now().UTC(),
	}
	err = store.UpdateTransaction(ctx, missing)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateTransactionCategory(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice@example.com")
	cat := createTestCategory(t, store, user.ID, "餐饮", model.CategoryTypeExpense)

	txn := createTestTransaction(t, store, user.ID, model.TransactionTypeExpense, 10, nil, time.Now().UTC())

	require.NoError(t, store.UpdateTransactionCategory(ctx, txn.ID, cat.ID))

	found, err := store.GetTransactionByID(ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.CategoryID)
	assert.Equal(t, cat.ID, *found.CategoryID)

	err = store.UpdateTransactionCategory(ctx, "no-such-id", cat.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteTransaction(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice@example.com")

	txn := createTestTransaction(t, store, user.ID, model.TransactionTypeExpense, 10, nil, time.Now().UTC())

	require.NoError(t, store.DeleteTransaction(ctx, txn.ID))

	found, err := store.GetTransactionByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	err = store.DeleteTransaction(ctx, txn.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSumTransactionAmount(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice@example.com")

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	createTestTransaction(t, store, user.ID, model.TransactionTypeExpense, 10, nil, base)
	createTestTransaction(t, store, user.ID, model.TransactionTypeExpense, 25.5, nil, base.AddDate(0, 0, 5))
	createTestTransaction(t, store, user.ID, model.TransactionTypeIncome, 100, nil, base.AddDate(0, 0, 5))
	// Outside the range.
	createTestTransaction(t, store, user.ID, model.TransactionTypeExpense, 999, nil, base.AddDate(0, 1, 0))

	total, err := store.SumTransactionAmount(ctx, user.ID, model.TransactionTypeExpense, base, base.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.InDelta(t, 35.5, total, 1e-9)

	// No matching rows sums to zero.
	total, err = store.SumTransactionAmount(ctx, user.ID, model.TransactionTypeNeutral, base, base.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = store.SumTransactionAmount(ctx, user.ID, model.TransactionTypeExpense, base.AddDate(0, 0, 10), base)
	require.ErrorIs(t, err, ErrInvalidDateRange)
}
