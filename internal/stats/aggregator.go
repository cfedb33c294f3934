// Package stats computes aggregate statistics over a user's transactions.
package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

// DefaultRangeDays is the span of the statistics window when the caller does
// not supply one: the previous 30 days through now.
const DefaultRangeDays = 30

// recentLimit is how many recent transactions the payload carries.
const recentLimit = 5

// monthlyBudgetName labels the single budget alert entry. The ceiling is
// stored client-side; the server only reports the amount used.
const monthlyBudgetName = "月度预算"

// unclassifiedName labels transactions without a category in distributions.
const unclassifiedName = "未分类"

// Aggregator computes statistics from the persistent store.
type Aggregator struct {
	store service.Storage
}

// New creates a statistics aggregator.
func New(store service.Storage) *Aggregator {
	return &Aggregator{store: store}
}

// GetStatistics computes the full statistics payload for a user within
// [start, end]. Nil bounds default to the previous 30 days through now.
func (a *Aggregator) GetStatistics(ctx context.Context, userID string, start, end *time.Time) (*model.StatisticsData, error) {
	now := time.Now()
	if start == nil {
		s := now.AddDate(0, 0, -DefaultRangeDays)
		start = &s
	}
	if end == nil {
		e := now
		end = &e
	}
	if end.Before(*start) {
		return nil, fmt.Errorf("invalid date range: %v is after %v", start, end)
	}

	totalIncome, err := a.store.SumTransactionAmount(ctx, userID, model.TransactionTypeIncome, *start, *end)
	if err != nil {
		return nil, fmt.Errorf("failed to sum income: %w", err)
	}
	totalExpense, err := a.store.SumTransactionAmount(ctx, userID, model.TransactionTypeExpense, *start, *end)
	if err != nil {
		return nil, fmt.Errorf("failed to sum expenses: %w", err)
	}

	transactions, err := a.store.GetTransactions(ctx, userID, service.TransactionFilter{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	budgetAlerts, err := a.budgetAlerts(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to compute budget alerts: %w", err)
	}

	return &model.StatisticsData{
		TotalIncome:          totalIncome,
		TotalExpense:         totalExpense,
		Balance:              totalIncome - totalExpense,
		CategoryDistribution: distribution(transactions),
		MonthlyTrends:        trends(transactions, *start, *end),
		RecentTransactions:   recent(transactions),
		BudgetAlerts:         budgetAlerts,
	}, nil
}

// distribution groups income/expense transactions by (type, category) and
// expresses each group as a percentage of its type's total. Neutral
// transactions are excluded.
func distribution(transactions []model.Transaction) []model.CategoryDistribution {
	type key struct {
		txnType    model.TransactionType
		categoryID string
	}

	grouped := make(map[key]*model.CategoryDistribution)
	var order []key
	for i := range transactions {
		txn := &transactions[i]
		if txn.Type == model.TransactionTypeNeutral {
			continue
		}

		k := key{txnType: txn.Type, categoryID: "unclassified"}
		if txn.CategoryID != nil {
			k.categoryID = *txn.CategoryID
		}

		entry, ok := grouped[k]
		if !ok {
			entry = &model.CategoryDistribution{
				CategoryID:   k.categoryID,
				CategoryName: unclassifiedName,
				Type:         txn.Type,
			}
			if txn.Category != nil {
				entry.CategoryName = txn.Category.Name
				entry.Icon = txn.Category.Icon
				entry.Color = txn.Category.Color
			}
			grouped[k] = entry
			order = append(order, k)
		}
		entry.Amount += txn.Amount
	}

	totalByType := make(map[model.TransactionType]float64)
	for _, entry := range grouped {
		totalByType[entry.Type] += entry.Amount
	}

	result := make([]model.CategoryDistribution, 0, len(order))
	for _, k := range order {
		entry := grouped[k]
		if total := totalByType[entry.Type]; total > 0 {
			entry.Percentage = entry.Amount / total * 100
		}
		result = append(result, *entry)
	}
	return result
}

// trends buckets income and expense by day when the range spans at most 31
// days, by calendar month otherwise, sorted ascending by bucket key.
func trends(transactions []model.Transaction, start, end time.Time) []model.MonthlyTrend {
	daysDiff := int(math.Ceil(end.Sub(start).Hours() / 24))
	byDay := daysDiff <= 31

	buckets := make(map[string]*model.MonthlyTrend)
	for i := range transactions {
		txn := &transactions[i]

		var key string
		if byDay {
			key = txn.Date.Format("2006-01-02")
		} else {
			key = txn.Date.Format("2006-01")
		}

		bucket, ok := buckets[key]
		if !ok {
			bucket = &model.MonthlyTrend{Month: key}
			buckets[key] = bucket
		}

		switch txn.Type {
		case model.TransactionTypeIncome:
			bucket.Income += txn.Amount
		case model.TransactionTypeExpense:
			bucket.Expense += txn.Amount
		case model.TransactionTypeNeutral:
			// excluded from trends
		}
	}

	result := make([]model.MonthlyTrend, 0, len(buckets))
	for _, bucket := range buckets {
		result = append(result, *bucket)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Month < result[j].Month
	})
	return result
}

// recent returns the newest transactions in range, enriched with category
// display data. Neutral transactions are included here.
func recent(transactions []model.Transaction) []model.RecentTransaction {
	sorted := make([]model.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	limit := recentLimit
	if len(sorted) < limit {
		limit = len(sorted)
	}

	result := make([]model.RecentTransaction, 0, limit)
	for _, txn := range sorted[:limit] {
		entry := model.RecentTransaction{
			ID:           txn.ID,
			Type:         txn.Type,
			Amount:       txn.Amount,
			CategoryName: unclassifiedName,
			Description:  txn.Description,
			Date:         txn.Date,
		}
		if txn.Category != nil {
			entry.CategoryName = txn.Category.Name
			entry.Icon = txn.Category.Icon
			entry.Color = txn.Category.Color
		}
		result = append(result, entry)
	}
	return result
}

// budgetAlerts reports expense spend for the current calendar month,
// regardless of the requested statistics range. The budget ceiling,
// percentage and status are placeholders finalized client-side from the
// locally stored budget setting.
func (a *Aggregator) budgetAlerts(ctx context.Context, userID string, now time.Time) ([]model.BudgetAlert, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Nanosecond)

	used, err := a.store.SumTransactionAmount(ctx, userID, model.TransactionTypeExpense, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	return []model.BudgetAlert{
		{
			CategoryName: monthlyBudgetName,
			Used:         used,
			Budget:       0,
			Percentage:   0,
			Status:       "safe",
		},
	}, nil
}
