package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

// CreateTransaction inserts a new transaction.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	txn.CreatedAt = now
	txn.UpdatedAt = now

	var categoryID any
	if txn.CategoryID != nil && *txn.CategoryID != "" {
		categoryID = *txn.CategoryID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, category_id, description, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.UserID, string(txn.Type), txn.Amount, categoryID,
		txn.Description, txn.Date, txn.CreatedAt, txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionByID returns a transaction with its category hydrated, or nil
// if absent.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, transactionSelect+` WHERE t.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	defer func() { _ = rows.Close() }()

	txns, err := scanTransactions(rows)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, nil // transaction not found
	}
	return &txns[0], nil
}

// GetTransactions returns a user's transactions matching the filter, newest
// first, with categories hydrated.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, userID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: %v is after %v", ErrInvalidDateRange, filter.StartDate, filter.EndDate)
	}

	var sb strings.Builder
	sb.WriteString(transactionSelect)
	sb.WriteString(` WHERE t.user_id = ?`)
	args := []any{userID}

	if filter.Type != "" {
		sb.WriteString(` AND t.type = ?`)
		args = append(args, string(filter.Type))
	}
	if filter.CategoryID != "" {
		sb.WriteString(` AND t.category_id = ?`)
		args = append(args, filter.CategoryID)
	}
	if filter.StartDate != nil {
		sb.WriteString(` AND t.date >= ?`)
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		sb.WriteString(` AND t.date <= ?`)
		args = append(args, *filter.EndDate)
	}

	sb.WriteString(` ORDER BY t.date DESC, t.id`)
	if filter.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// UpdateTransaction updates a transaction's mutable fields.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	if err := validateString(txn.ID, "txn.ID"); err != nil {
		return err
	}

	txn.UpdatedAt = time.Now().UTC()

	var categoryID any
	if txn.CategoryID != nil && *txn.CategoryID != "" {
		categoryID = *txn.CategoryID
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount = ?, category_id = ?, description = ?, date = ?, updated_at = ?
		WHERE id = ?`,
		string(txn.Type), txn.Amount, categoryID, txn.Description, txn.Date,
		txn.UpdatedAt, txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transaction %s", common.ErrNotFound, txn.ID)
	}
	return nil
}

// UpdateTransactionCategory sets only the category of a transaction. Used by
// the classifier for bulk assignment.
func (s *SQLiteStorage) UpdateTransactionCategory(ctx context.Context, id string, categoryID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(categoryID, "categoryID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET category_id = ?, updated_at = ? WHERE id = ?`,
		categoryID, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	return nil
}

// DeleteTransaction removes a transaction.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}

	slog.Debug("deleted transaction", "id", id)
	return nil
}

// SumTransactionAmount returns the amount total of a user's transactions of
// one type within [start, end].
func (s *SQLiteStorage) SumTransactionAmount(ctx context.Context, userID string, txnType model.TransactionType, start, end time.Time) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return 0, err
	}
	if end.Before(start) {
		return 0, fmt.Errorf("%w: %v is after %v", ErrInvalidDateRange, start, end)
	}

	var total sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(amount) FROM transactions
		WHERE user_id = ? AND type = ? AND date >= ? AND date <= ?`,
		userID, string(txnType), start, end,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total.Float64, nil
}

const transactionSelect = `
	SELECT t.id, t.user_id, t.type, t.amount, t.category_id, t.description,
	       t.date, t.created_at, t.updated_at,
	       c.id, c.user_id, c.name, c.type, c.icon, c.color, c.created_at, c.updated_at
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id`

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var txns []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var categoryID, description sql.NullString
		var catID, catUserID, catName, catType, catIcon, catColor sql.NullString
		var catCreatedAt, catUpdatedAt sql.NullTime

		if err := rows.Scan(
			&txn.ID, &txn.UserID, &txn.Type, &txn.Amount, &categoryID, &description,
			&txn.Date, &txn.CreatedAt, &txn.UpdatedAt,
			&catID, &catUserID, &catName, &catType, &catIcon, &catColor,
			&catCreatedAt, &catUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txn.Description = description.String
		if categoryID.Valid {
			id := categoryID.String
			txn.CategoryID = &id
		}
		if catID.Valid {
			txn.Category = &model.Category{
				ID:        catID.String,
				UserID:    catUserID.String,
				Name:      catName.String,
				Type:      model.CategoryType(catType.String),
				Icon:      catIcon.String,
				Color:     catColor.String,
				CreatedAt: catCreatedAt.Time,
				UpdatedAt: catUpdatedAt.Time,
			}
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}
