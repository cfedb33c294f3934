package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create storage")
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()), "failed to migrate")
	return store
}

// Helper function to create a test user.
func createTestUser(t *testing.T, store *SQLiteStorage, email string) *model.User {
	t.Helper()

	user := &model.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$2a$10$not-a-real-hash",
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func TestMigrate(t *testing.T) {
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version, "fresh database should be unversioned")

	require.NoError(t, store.Migrate(ctx))

	version, err = store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again must be a no-op.
	require.NoError(t, store.Migrate(ctx))
}

func TestCreateUser(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user := &model.User{
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: "hash",
	}
	require.NoError(t, store.CreateUser(ctx, user))
	assert.NotEmpty(t, user.ID, "ID should be assigned on create")
	assert.False(t, user.CreatedAt.IsZero())

	// Duplicate email.
	dup := &model.User{Email: "alice@example.com", PasswordHash: "hash"}
	err := store.CreateUser(ctx, dup)
	require.ErrorIs(t, err, common.ErrDuplicateEntry)

	// Missing fields.
	err = store.CreateUser(ctx, &model.User{Email: "", PasswordHash: "hash"})
	require.ErrorIs(t, err, ErrInvalidUser)
	err = store.CreateUser(ctx, &model.User{Email: "bob@example.com"})
	require.ErrorIs(t, err, ErrInvalidUser)
}

func TestGetUser(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice@example.com")

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "Test User", byEmail.Name)

	byID, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice@example.com", byID.Email)

	missing, err := store.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing, "unknown email should return nil, not an error")
}

func TestListUsers(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	createTestUser(t, store, "alice@example.com")
	createTestUser(t, store, "bob@example.com")

	users, err = store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestSessions(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice@example.com")

	session, err := store.CreateSession(ctx, user.ID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, user.ID, session.UserID)
	assert.True(t, session.ExpiresAt.After(session.CreatedAt))

	found, err := store.GetSession(ctx, session.Token)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.UserID)

	require.NoError(t, store.DeleteSession(ctx, session.Token))

	found, err = store.GetSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, found, "deleted session should be gone")
}

func TestExpiredSessionRemovedOnLookup(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice@example.com")

	session, err := store.CreateSession(ctx, user.ID, -time.Minute)
	require.NoError(t, err)

	found, err := store.GetSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, found, "expired session should resolve to nil")

	// The row itself must have been deleted, not just filtered.
	var count int
	err = store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE token = ?`, session.Token,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestValidationErrors(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.GetUserByEmail(ctx, "  ")
	require.ErrorIs(t, err, ErrEmptyString)

	_, err = store.GetSession(ctx, "")
	require.ErrorIs(t, err, ErrEmptyString)

	err = store.CreateUser(ctx, nil)
	require.ErrorIs(t, err, ErrNilParameter)
}
