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

// CreateUser inserts a new user. The email must be unique.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.Name, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: email %s", common.ErrDuplicateEntry, user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("created user", "id", user.ID, "email", user.Email)
	return nil
}

// GetUserByEmail returns the user with the given email, or nil if absent.
func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}

	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, created_at, updated_at
		FROM users WHERE email = ?`, email))
}

// GetUserByID returns the user with the given id, or nil if absent.
func (s *SQLiteStorage) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, created_at, updated_at
		FROM users WHERE id = ?`, id))
}

// ListUsers returns all users ordered by creation time.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, password_hash, name, created_at, updated_at
		FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		var u model.User
		var name sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Name = name.String
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

func (s *SQLiteStorage) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var name sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &name, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // user not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.Name = name.String
	return &u, nil
}

// CreateSession creates a new session for the user with the given lifetime.
func (s *SQLiteStorage) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &model.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		session.Token, session.UserID, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// GetSession returns the session for the token, or nil if absent or expired.
// Expired sessions are removed on lookup.
func (s *SQLiteStorage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(token, "token"); err != nil {
		return nil, err
	}

	var session model.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT token, user_id, expires_at, created_at
		FROM sessions WHERE token = ?`, token,
	).Scan(&session.Token, &session.UserID, &session.ExpiresAt, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // session not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if session.Expired(time.Now().UTC()) {
		if delErr := s.DeleteSession(ctx, token); delErr != nil {
			slog.Warn("failed to remove expired session", "error", delErr)
		}
		return nil, nil
	}

	return &session, nil
}

// DeleteSession removes the session with the given token.
func (s *SQLiteStorage) DeleteSession(ctx context.Context, token string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(token, "token"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
