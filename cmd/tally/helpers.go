package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
	"github.com/tallyhq/tally/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/tally/tally.db"
	}

	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// lookupUser resolves a --user email flag to the stored user.
func lookupUser(ctx context.Context, store service.Storage, email string) (*model.User, error) {
	if email == "" {
		return nil, common.NewUserError("--user is required", common.ErrInvalidInput)
	}

	user, err := store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %s: %w", email, err)
	}
	if user == nil {
		return nil, common.NewUserError(fmt.Sprintf("no user with email %s", email), common.ErrNotFound)
	}
	return user, nil
}
