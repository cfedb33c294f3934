package model

import "time"

// TransactionType indicates the monetary direction of a transaction.
type TransactionType string

const (
	// TransactionTypeIncome represents money coming in.
	TransactionTypeIncome TransactionType = "income"
	// TransactionTypeExpense represents money going out.
	TransactionTypeExpense TransactionType = "expense"
	// TransactionTypeNeutral represents transfers and other movements that
	// count neither as income nor expense (excluded from aggregation).
	TransactionTypeNeutral TransactionType = "neutral"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeNeutral:
		return true
	}
	return false
}

// Transaction is a single dated monetary record owned by a user.
type Transaction struct {
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	CategoryID  *string         `json:"categoryId"`
	Category    *Category       `json:"category,omitempty"`
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description,omitempty"`
	Amount      float64         `json:"amount"`
}
