// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"io"
	"time"

	"github.com/tallyhq/tally/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	Type       model.TransactionType
	CategoryID string
	Limit      int
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)

	// Session operations
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (*model.Session, error)
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error

	// Category operations
	GetCategories(ctx context.Context, userID string) ([]model.Category, error)
	GetCategoriesByType(ctx context.Context, userID string, categoryType model.CategoryType) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	FindCategoryByName(ctx context.Context, userID string, categoryType model.CategoryType, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string, policy model.DeletePolicy, targetCategoryID string) error

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateTransactionCategory(ctx context.Context, id string, categoryID string) error
	DeleteTransaction(ctx context.Context, id string) error
	SumTransactionAmount(ctx context.Context, userID string, txnType model.TransactionType, start, end time.Time) (float64, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// BillImporter parses an uploaded bill file into importable transactions.
// Parsed transactions carry no ID or user; the caller assigns ownership.
type BillImporter interface {
	Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
