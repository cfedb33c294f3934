// Package storage provides the data persistence layer for the tally application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tallyhq/tally/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidUser      = errors.New("invalid user")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidTxn       = errors.New("invalid transaction")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateUser validates a user before persisting.
func validateUser(user *model.User) error {
	if user == nil {
		return fmt.Errorf("%w: user", ErrNilParameter)
	}
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("%w: missing email", ErrInvalidUser)
	}
	if user.PasswordHash == "" {
		return fmt.Errorf("%w: missing password hash", ErrInvalidUser)
	}
	return nil
}

// validateCategory validates a category before persisting.
func validateCategory(category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	if strings.TrimSpace(category.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidCategory)
	}
	if !category.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCategory, category.Type)
	}
	return nil
}

// validateTransaction validates a transaction before persisting.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if strings.TrimSpace(txn.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidTxn)
	}
	if !txn.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTxn, txn.Type)
	}
	if txn.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTxn)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTxn)
	}
	return nil
}
