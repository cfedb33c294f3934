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
)

const categoryColumns = `id, user_id, name, type, icon, color, created_at, updated_at`

// GetCategories returns all of a user's categories, newest first.
func (s *SQLiteStorage) GetCategories(ctx context.Context, userID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = ?
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCategories(rows)
}

// GetCategoriesByType returns a user's categories of one type, newest first.
func (s *SQLiteStorage) GetCategoriesByType(ctx context.Context, userID string, categoryType model.CategoryType) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if !categoryType.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidCategory, categoryType)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = ? AND type = ?
		ORDER BY created_at DESC, id`, userID, string(categoryType))
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCategories(rows)
}

// GetCategoryByID returns a category by its id, or nil if absent.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories WHERE id = ?`, id)

	cat, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil // category not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

// FindCategoryByName returns a user's category matched case-insensitively by
// name within one type, or nil if absent.
func (s *SQLiteStorage) FindCategoryByName(ctx context.Context, userID string, categoryType model.CategoryType, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = ? AND type = ? AND lower(name) = lower(?)`,
		userID, string(categoryType), name)

	cat, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil // category not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

// CreateCategory inserts a new category. Names are unique per (user, type),
// compared case-insensitively; a clash returns common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, type, icon, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		category.ID, category.UserID, category.Name, string(category.Type),
		category.Icon, category.Color, category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: category %q", common.ErrDuplicateEntry, category.Name)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	slog.Info("created category", "id", category.ID, "name", category.Name, "type", category.Type)
	return nil
}

// UpdateCategory updates a category's name, type, icon and color.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}
	if err := validateString(category.ID, "category.ID"); err != nil {
		return err
	}

	category.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, type = ?, icon = ?, color = ?, updated_at = ?
		WHERE id = ?`,
		category.Name, string(category.Type), category.Icon, category.Color,
		category.UpdatedAt, category.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: category %q", common.ErrDuplicateEntry, category.Name)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: category %s", common.ErrNotFound, category.ID)
	}
	return nil
}

// DeleteCategory removes a category, applying the given policy to its
// transactions: nullify detaches them, move reassigns them to
// targetCategoryID, delete removes them. The whole operation is atomic.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id string, policy model.DeletePolicy, targetCategoryID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if !policy.Valid() {
		return fmt.Errorf("%w: unknown delete policy %q", common.ErrInvalidInput, policy)
	}
	if policy == model.DeleteMove {
		if err := validateString(targetCategoryID, "targetCategoryID"); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	switch policy {
	case model.DeleteNullify:
		_, err = tx.ExecContext(ctx, `UPDATE transactions SET category_id = NULL WHERE category_id = ?`, id)
	case model.DeleteMove:
		_, err = tx.ExecContext(ctx, `UPDATE transactions SET category_id = ? WHERE category_id = ?`, targetCategoryID, id)
	case model.DeleteTransactions:
		_, err = tx.ExecContext(ctx, `DELETE FROM transactions WHERE category_id = ?`, id)
	}
	if err != nil {
		return fmt.Errorf("failed to apply %s policy: %w", policy, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: category %s", common.ErrNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit category deletion: %w", err)
	}

	slog.Info("deleted category", "id", id, "policy", policy)
	return nil
}

func scanCategory(row *sql.Row) (*model.Category, error) {
	var cat model.Category
	var icon, color sql.NullString
	err := row.Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Type, &icon, &color, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		return nil, err
	}
	cat.Icon = icon.String
	cat.Color = color.String
	return &cat, nil
}

func scanCategories(rows *sql.Rows) ([]model.Category, error) {
	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		var icon, color sql.NullString
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Type, &icon, &color, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cat.Icon = icon.String
		cat.Color = color.String
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}
