package main

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/tallyhq/tally/internal/cli"
	"github.com/tallyhq/tally/internal/model"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	cmd.AddCommand(usersAddCmd())
	cmd.AddCommand(usersListCmd())

	return cmd
}

func usersAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE:  runUsersAdd,
	}

	cmd.Flags().String("name", "", "display name")
	cmd.Flags().String("password", "", "password (prompted when omitted)")

	return cmd
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	email := strings.TrimSpace(args[0])
	name, _ := cmd.Flags().GetString("name")
	password, _ := cmd.Flags().GetString("password")

	if password == "" {
		fmt.Print("Password: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Created user %s (%s)", user.Email, user.ID)))
	return nil
}

func usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			users, err := store.ListUsers(ctx)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			if len(users) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No users"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-36s  %-30s  %s", "ID", "EMAIL", "NAME")))
			for _, user := range users {
				fmt.Println(cli.TableCellStyle.Render(fmt.Sprintf("%-36s  %-30s  %s", user.ID, user.Email, user.Name)))
			}
			return nil
		},
	}
}
