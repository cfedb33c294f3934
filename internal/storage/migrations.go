package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					email TEXT UNIQUE NOT NULL,
					password_hash TEXT NOT NULL,
					name TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					name TEXT NOT NULL,
					type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
					icon TEXT,
					color TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (user_id) REFERENCES users(id)
				)`,
				`CREATE INDEX idx_categories_user ON categories(user_id)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					type TEXT NOT NULL CHECK (type IN ('income', 'expense', 'neutral')),
					amount REAL NOT NULL CHECK (amount > 0),
					category_id TEXT,
					description TEXT,
					date DATETIME NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (user_id) REFERENCES users(id),
					FOREIGN KEY (category_id) REFERENCES categories(id)
				)`,
				`CREATE INDEX idx_transactions_user_date ON transactions(user_id, date)`,
				`CREATE INDEX idx_transactions_category ON transactions(category_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add sessions table for cookie authentication",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS sessions (
					token TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					expires_at DATETIME NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (user_id) REFERENCES users(id)
				)`,
				`CREATE INDEX idx_sessions_user ON sessions(user_id)`,
				`CREATE INDEX idx_sessions_expires ON sessions(expires_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Enforce case-insensitive category name uniqueness per user and type",
		Up: func(tx *sql.Tx) error {
			// Collapse any duplicates that predate the constraint: keep the
			// oldest category of each (user, type, name) group and repoint
			// transactions at it before removing the rest.
			rows, err := tx.Query(`
				SELECT id, (
					SELECT c2.id FROM categories c2
					WHERE c2.user_id = c1.user_id
					  AND c2.type = c1.type
					  AND lower(c2.name) = lower(c1.name)
					ORDER BY c2.created_at, c2.id
					LIMIT 1
				) AS keeper
				FROM categories c1`)
			if err != nil {
				return fmt.Errorf("failed to scan for duplicate categories: %w", err)
			}
			defer func() { _ = rows.Close() }()

			type dup struct{ id, keeper string }
			var dups []dup
			for rows.Next() {
				var d dup
				if scanErr := rows.Scan(&d.id, &d.keeper); scanErr != nil {
					return fmt.Errorf("failed to scan duplicate category: %w", scanErr)
				}
				if d.id != d.keeper {
					dups = append(dups, d)
				}
			}
			if err := rows.Err(); err != nil {
				return fmt.Errorf("error iterating duplicate categories: %w", err)
			}

			for _, d := range dups {
				if _, err := tx.Exec(`UPDATE transactions SET category_id = ? WHERE category_id = ?`, d.keeper, d.id); err != nil {
					return fmt.Errorf("failed to repoint transactions: %w", err)
				}
				if _, err := tx.Exec(`DELETE FROM categories WHERE id = ?`, d.id); err != nil {
					return fmt.Errorf("failed to remove duplicate category: %w", err)
				}
			}

			if len(dups) > 0 {
				slog.Info("Collapsed duplicate categories", "count", len(dups))
			}

			if _, err := tx.Exec(`CREATE UNIQUE INDEX idx_categories_unique_name
				ON categories(user_id, type, lower(name))`); err != nil {
				return fmt.Errorf("failed to create unique category index: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the current schema version of the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
