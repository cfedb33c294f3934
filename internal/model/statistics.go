package model

import "time"

// StatisticsData is the full statistics payload for a user and date range.
type StatisticsData struct {
	TotalIncome          float64                `json:"totalIncome"`
	TotalExpense         float64                `json:"totalExpense"`
	Balance              float64                `json:"balance"`
	CategoryDistribution []CategoryDistribution `json:"categoryDistribution"`
	MonthlyTrends        []MonthlyTrend         `json:"monthlyTrends"`
	RecentTransactions   []RecentTransaction    `json:"recentTransactions"`
	BudgetAlerts         []BudgetAlert          `json:"budgetAlerts"`
}

// CategoryDistribution is one category's share of a type's total in range.
// Uncategorized transactions group under the synthetic id "unclassified".
type CategoryDistribution struct {
	CategoryID   string          `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Type         TransactionType `json:"type"`
	Icon         string          `json:"icon,omitempty"`
	Color        string          `json:"color,omitempty"`
	Amount       float64         `json:"amount"`
	Percentage   float64         `json:"percentage"`
}

// MonthlyTrend is an income/expense bucket keyed by day ("2006-01-02") or
// calendar month ("2006-01") depending on the span of the requested range.
type MonthlyTrend struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// RecentTransaction is a transaction enriched with category display data.
type RecentTransaction struct {
	Date         time.Time       `json:"date"`
	ID           string          `json:"id"`
	Type         TransactionType `json:"type"`
	CategoryName string          `json:"categoryName"`
	Description  string          `json:"description,omitempty"`
	Icon         string          `json:"icon,omitempty"`
	Color        string          `json:"color,omitempty"`
	Amount       float64         `json:"amount"`
}

// BudgetAlert reports spending against a budget ceiling. The ceiling itself
// is not persisted server-side: only Used is computed here (always for the
// current calendar month); Budget, Percentage and Status are finalized by the
// client from its locally stored budget.
type BudgetAlert struct {
	CategoryID   string  `json:"categoryId,omitempty"`
	CategoryName string  `json:"categoryName"`
	Status       string  `json:"status"`
	Budget       float64 `json:"budget"`
	Used         float64 `json:"used"`
	Percentage   float64 `json:"percentage"`
}
