package model

import "time"

// CategoryType indicates whether a category groups income or expense
// transactions. Neutral transactions never carry a category.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
)

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// Category is a named, typed grouping for transactions, owned by a user.
// Names are unique per (user, type), compared case-insensitively.
type Category struct {
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	Icon      string       `json:"icon,omitempty"`
	Color     string       `json:"color,omitempty"`
}

// DeletePolicy controls what happens to a deleted category's transactions.
type DeletePolicy string

const (
	// DeleteNullify detaches transactions, leaving them uncategorized.
	DeleteNullify DeletePolicy = "nullify"
	// DeleteMove reassigns transactions to another same-type category.
	DeleteMove DeletePolicy = "move"
	// DeleteTransactions removes the category's transactions entirely.
	DeleteTransactions DeletePolicy = "delete"
)

// Valid reports whether p is a known delete policy.
func (p DeletePolicy) Valid() bool {
	switch p {
	case DeleteNullify, DeleteMove, DeleteTransactions:
		return true
	}
	return false
}
